// Package cache は読み取りビューのプロセス内キャッシュを提供する。
package cache

import (
	"strings"
	"sync"
	"time"
)

// Observer はキャッシュの参照結果と無効化を記録する。
type Observer interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordInvalidation(paths int)
}

type entry struct {
	value     any
	expiresAt time.Time
}

// ViewCache はビューのパスをキーとするTTL付きキャッシュ。
// 書き込み成功後にInvalidateされ、次の読み取りで再計算される。
//
// 読み取り中に書き込みが確定した場合に古い値を載せないよう、パスごとに世代を持つ。
// 読み取り側はBeginで世代を得てから読み込み、SetIfFreshで世代が変わっていなければ登録する。
type ViewCache struct {
	mu       sync.RWMutex
	entries  map[string]entry
	gens     map[string]uint64
	seq      uint64
	ttl      time.Duration
	now      func() time.Time
	observer Observer
}

// NewViewCache はViewCacheを生成する。observerはnilでもよい。
func NewViewCache(ttl time.Duration, observer Observer) *ViewCache {
	return &ViewCache{
		entries:  make(map[string]entry),
		gens:     make(map[string]uint64),
		ttl:      ttl,
		now:      time.Now,
		observer: observer,
	}
}

// Get はpathの値を返す。期限切れまたは未登録の場合はfalseを返す。
func (c *ViewCache) Get(path string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		if c.observer != nil {
			c.observer.RecordCacheMiss()
		}
		return nil, false
	}
	if c.observer != nil {
		c.observer.RecordCacheHit()
	}
	return e.value, true
}

// Set はpathに値を登録する。TTLが0以下の場合は何もしない。
func (c *ViewCache) Set(path string, value any) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[path] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Begin はpathの現在の世代を返す。読み込みの前に呼ぶ。
func (c *ViewCache) Begin(path string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen, ok := c.gens[path]
	if !ok {
		// 初回は現在の通し番号から始め、削除済みの世代と衝突させない
		gen = c.seq
		c.gens[path] = gen
	}
	return gen
}

// SetIfFresh はBegin以降にpathが無効化されていなければ値を登録し、登録したかを返す。
func (c *ViewCache) SetIfFresh(path string, gen uint64, value any) bool {
	if c.ttl <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.gens[path]; !ok || cur != gen {
		return false
	}
	c.entries[path] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
	return true
}

// Invalidate は各pathと、その配下のパス（"/groups" に対する "/groups/12" や
// "/groups?user=..."）を破棄する。
func (c *ViewCache) Invalidate(paths ...string) {
	if len(paths) == 0 {
		return
	}

	c.mu.Lock()
	for key := range c.entries {
		if coveredByAny(paths, key) {
			delete(c.entries, key)
		}
	}
	c.seq++
	for key := range c.gens {
		if coveredByAny(paths, key) {
			c.gens[key] = c.seq
		}
	}
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.RecordInvalidation(len(paths))
	}
}

// Purge は期限切れのエントリを削除し、削除件数を返す。
// エントリのないパスの世代も捨てる。読み込み中のパスだった場合はその回の登録が見送られるだけ。
func (c *ViewCache) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			n++
		}
	}
	for key := range c.gens {
		if _, ok := c.entries[key]; !ok {
			delete(c.gens, key)
		}
	}
	return n
}

// Len は保持しているエントリ数を返す。
func (c *ViewCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func coveredByAny(paths []string, key string) bool {
	for _, p := range paths {
		if covers(p, key) {
			return true
		}
	}
	return false
}

// covers はprefixのパスがkeyを含むかを判定する。
func covers(prefix, key string) bool {
	if key == prefix {
		return true
	}
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	next := key[len(prefix)]
	return next == '/' || next == '?'
}
