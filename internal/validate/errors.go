package validate

import "encoding/json"

// DefaultMessage はフィールドエラーが1件もない場合の汎用メッセージ。
const DefaultMessage = "Data input tidak valid."

// FieldErrors はフィールドごとの検証メッセージを保持する。
// フィールドはスキーマの宣言順に並ぶ。
type FieldErrors struct {
	order   []string
	byField map[string][]string
}

// NewFieldErrors は空のFieldErrorsを生成する。
func NewFieldErrors() *FieldErrors {
	return &FieldErrors{byField: make(map[string][]string)}
}

// Add はfieldにメッセージを追加する。
func (e *FieldErrors) Add(field, message string) {
	if _, ok := e.byField[field]; !ok {
		e.order = append(e.order, field)
	}
	e.byField[field] = append(e.byField[field], message)
}

// Has はfieldにエラーがあるかを返す。
func (e *FieldErrors) Has(field string) bool {
	if e == nil {
		return false
	}
	_, ok := e.byField[field]
	return ok
}

// Get はfieldのメッセージ一覧を返す。
func (e *FieldErrors) Get(field string) []string {
	if e == nil {
		return nil
	}
	return e.byField[field]
}

// Len はエラーのあるフィールド数を返す。
func (e *FieldErrors) Len() int {
	if e == nil {
		return 0
	}
	return len(e.order)
}

// Fields はエラーのあるフィールド名を宣言順で返す。
func (e *FieldErrors) Fields() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.order...)
}

// First は宣言順で最初のフィールドの最初のメッセージを返す。
// エラーがなければDefaultMessageを返す。
func (e *FieldErrors) First() string {
	if e.Len() == 0 {
		return DefaultMessage
	}
	return e.byField[e.order[0]][0]
}

// Error はerrorインターフェースを実装する。最初のメッセージを返す。
func (e *FieldErrors) Error() string {
	return e.First()
}

// Map はフィールド名からメッセージ一覧へのmapを返す。
func (e *FieldErrors) Map() map[string][]string {
	if e == nil {
		return nil
	}
	out := make(map[string][]string, len(e.byField))
	for k, v := range e.byField {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// MarshalJSON はFieldErrorsを{"field": ["msg"]}形式で出力する。
func (e *FieldErrors) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Map())
}

// sortBy はorderに従ってフィールド順を並べ替える。orderにないフィールドは末尾に残る。
func (e *FieldErrors) sortBy(order []string) {
	rank := make(map[string]int, len(order))
	for i, f := range order {
		rank[f] = i
	}
	sorted := make([]string, 0, len(e.order))
	for _, f := range order {
		if _, ok := e.byField[f]; ok {
			sorted = append(sorted, f)
		}
	}
	for _, f := range e.order {
		if _, ok := rank[f]; !ok {
			sorted = append(sorted, f)
		}
	}
	e.order = sorted
}
