// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はフォームの自由記述欄からマークアップを除去する。
// 保存値はプレーンテキストとし、表示側でエスケープする前提。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はStrictPolicyによるTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// cleanPasses はエンティティ経由で復元されるタグを除去しきるまでの最大反復回数。
const cleanPasses = 4

// Clean はタグを除去し、エンティティを戻したうえで前後の空白を取り除く。
// "&lt;b&gt;" のようにエンティティで書かれたタグも除去対象とし、
// 結果が変わらなくなるまで繰り返す。同一入力に対して常に同一出力を返す。
func (s *TextSanitizer) Clean(raw string) string {
	if raw == "" {
		return ""
	}
	text := raw
	for i := 0; i < cleanPasses; i++ {
		next := s.pass(text)
		if next == text {
			return strings.TrimSpace(text)
		}
		text = next
	}
	// 収束しない入力は山括弧ごと落とす
	return strings.TrimSpace(angleBrackets.Replace(text))
}

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// pass はエンティティを戻してからタグを除去し、bluemondayが付けたエスケープを戻す。
func (s *TextSanitizer) pass(text string) string {
	return html.UnescapeString(s.policy.Sanitize(html.UnescapeString(text)))
}

// CleanFields はfieldsのうちkeysで指定した項目をClean済みの値に置き換えた新しいmapを返す。
// 元のmapは変更しない。
func (s *TextSanitizer) CleanFields(fields map[string]string, keys ...string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	for _, k := range keys {
		if v, ok := out[k]; ok {
			out[k] = s.Clean(v)
		}
	}
	return out
}
