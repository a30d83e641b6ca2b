// Package validate はフォーム入力を型付きの値へ変換し、宣言的なルールで検証する。
//
// 入力は送信されたフォームそのままのフラットなmap[string]stringで、
// 変換はgo-playground/form、検証はgo-playground/validatorが行う。
// I/Oを伴わず、同じ入力には常に同じ結果を返す。
package validate

import (
	"errors"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/form/v4"
	idlocale "github.com/go-playground/locales/id"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	idtranslations "github.com/go-playground/validator/v10/translations/id"
)

// DateLayout はフォームの日付フィールドの形式。
const DateLayout = "2006-01-02"

const (
	hhmmTag  = "hhmm"
	hhmmText = "Format waktu tidak valid."

	finiteTag  = "finite"
	finiteText = "{0} harus berupa angka."

	maxBytesTag  = "maxbytes"
	maxBytesText = "{0} terlalu panjang."

	coerceKey = "coerce"
)

var hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// Messages はスキーマ固有のエラーメッセージ表。
// キーは "field.tag"（例: "title.min"）または "field"（タグを問わない）。
// 型変換に失敗した場合は "field.coerce" が参照される。
type Messages map[string]string

// Messager はスキーマ固有のメッセージ表を提供する。
type Messager interface {
	FieldMessages() Messages
}

// Validator はフォーム入力の変換と検証を行う。並行利用できる。
type Validator struct {
	decoder  *form.Decoder
	validate *validator.Validate
	trans    ut.Translator
	orders   sync.Map // reflect.Type -> []string
}

// New はインドネシア語の既定メッセージを登録したValidatorを生成する。
func New() *Validator {
	decoder := form.NewDecoder()
	decoder.SetTagName("form")
	decoder.RegisterCustomTypeFunc(parseDate, time.Time{})

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation(hhmmTag, func(fl validator.FieldLevel) bool {
		return hhmmRegex.MatchString(fl.Field().String())
	})
	// ParseFloatは"Inf"や"NaN"も受け付けるため、数値欄はfiniteで弾く
	_ = validate.RegisterValidation(finiteTag, func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			f := fl.Field().Float()
			return !math.IsInf(f, 0) && !math.IsNaN(f)
		}
		return true
	})
	// bcryptのように文字数ではなくバイト数で上限がある値に使う
	_ = validate.RegisterValidation(maxBytesTag, func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil || fl.Field().Kind() != reflect.String {
			return false
		}
		return len(fl.Field().String()) <= limit
	})

	locale := idlocale.New()
	trans, _ := ut.New(locale, locale).GetTranslator("id")
	_ = idtranslations.RegisterDefaultTranslations(validate, trans)
	registerCustomTranslation(validate, trans, hhmmTag, hhmmText)
	registerCustomTranslation(validate, trans, finiteTag, finiteText)
	registerCustomTranslation(validate, trans, maxBytesTag, maxBytesText)

	return &Validator{decoder: decoder, validate: validate, trans: trans}
}

// registerCustomTranslation は独自タグの翻訳を登録する。
func registerCustomTranslation(validate *validator.Validate, trans ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(
		tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// IsTime は"HH:MM"形式（00:00〜23:59）かどうかを返す。
func IsTime(s string) bool {
	return hhmmRegex.MatchString(s)
}

// Decode はfieldsをdst（構造体へのポインタ）に変換して検証する。
// 問題がなければnilを返す。変換に失敗したフィールドにはルール検証のメッセージを重ねない。
func (v *Validator) Decode(fields map[string]string, dst any) *FieldErrors {
	values := make(url.Values, len(fields))
	for k, val := range fields {
		values.Set(k, val)
	}

	var messages Messages
	if m, ok := dst.(Messager); ok {
		messages = m.FieldMessages()
	}

	errs := NewFieldErrors()
	coerced := make(map[string]bool)

	if err := v.decoder.Decode(dst, values); err != nil {
		var decodeErrs form.DecodeErrors
		if !errors.As(err, &decodeErrs) {
			errs.Add("_form", DefaultMessage)
			return errs
		}
		for field := range decodeErrs {
			coerced[field] = true
			errs.Add(field, coerceMessage(messages, field, fieldType(dst, field)))
		}
	}

	if err := v.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs.Add("_form", DefaultMessage)
			return errs
		}
		for _, fe := range verrs {
			field := fe.Field()
			if coerced[field] {
				continue
			}
			errs.Add(field, v.message(messages, fe))
		}
	}

	if errs.Len() == 0 {
		return nil
	}
	errs.sortBy(v.fieldOrder(dst))
	return errs
}

func (v *Validator) message(messages Messages, fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := messages[fe.Field()]; ok {
		return msg
	}
	return fe.Translate(v.trans)
}

func coerceMessage(messages Messages, field string, typ reflect.Type) string {
	if msg, ok := messages[field+"."+coerceKey]; ok {
		return msg
	}
	if msg, ok := messages[field]; ok {
		return msg
	}
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	switch {
	case typ == nil:
		return DefaultMessage
	case typ == reflect.TypeOf(time.Time{}):
		return "Tanggal tidak valid."
	case typ.Kind() >= reflect.Int && typ.Kind() <= reflect.Float64:
		return "Harus berupa angka."
	default:
		return DefaultMessage
	}
}

// fieldType はformタグ名からフィールドの型を返す。
func fieldType(dst any, name string) reflect.Type {
	t := reflect.TypeOf(dst)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if formName(f) == name {
			return f.Type
		}
	}
	return nil
}

// fieldOrder は構造体のformタグ名を宣言順で返す。型ごとにキャッシュする。
func (v *Validator) fieldOrder(dst any) []string {
	t := reflect.TypeOf(dst)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := v.orders.Load(t); ok {
		return cached.([]string)
	}
	var order []string
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			if name := formName(t.Field(i)); name != "" {
				order = append(order, name)
			}
		}
	}
	v.orders.Store(t, order)
	return order
}

func formName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// parseDate は"YYYY-MM-DD"またはRFC3339の日付を解釈する。空文字はゼロ値を返す。
func parseDate(vals []string) (interface{}, error) {
	if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
		return time.Time{}, nil
	}
	s := strings.TrimSpace(vals[0])
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// LowerFields はkeysの値を小文字にした新しいmapを返す。元のmapは変更しない。
// 大文字で書かれたUUIDを保存済みの表記にそろえるのに使う。
func LowerFields(fields map[string]string, keys ...string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	for _, k := range keys {
		if v, ok := out[k]; ok {
			out[k] = strings.ToLower(strings.TrimSpace(v))
		}
	}
	return out
}

// Into はfieldsをT型に変換して検証する。Specのデコード関数として使う。
func Into[T any](v *Validator, fields map[string]string) (T, *FieldErrors) {
	var in T
	errs := v.Decode(fields, &in)
	return in, errs
}
