package validate

import (
	"testing"
	"time"
)

type sampleInput struct {
	ID        *int64    `form:"id"`
	Title     string    `form:"title" validate:"min=3"`
	CourseID  int64     `form:"course_id" validate:"min=1"`
	DueDate   time.Time `form:"due_date" validate:"required"`
	Status    string    `form:"status" validate:"oneof=todo in_progress done"`
	StartTime string    `form:"start_time" validate:"hhmm"`
	MemberID  string    `form:"member_id" validate:"omitempty,uuid"`
	Note      *string   `form:"note"`
	Weight    float64   `form:"weight" validate:"finite"`
}

func (sampleInput) FieldMessages() Messages {
	return Messages{
		"title.min":      "Judul minimal 3 karakter.",
		"course_id":      "Mata kuliah wajib dipilih.",
		"due_date":       "Tanggal jatuh tempo wajib diisi.",
		"member_id.uuid": "Member tidak valid",
	}
}

func validFields() map[string]string {
	return map[string]string{
		"title":      "Laporan praktikum",
		"course_id":  "3",
		"due_date":   "2024-06-01",
		"status":     "todo",
		"start_time": "08:30",
	}
}

func TestDecode_ValidInput(t *testing.T) {
	v := New()
	var in sampleInput

	if errs := v.Decode(validFields(), &in); errs != nil {
		t.Fatalf("Decode() errors = %v, want nil", errs.Map())
	}

	if in.Title != "Laporan praktikum" {
		t.Errorf("Title = %q, want %q", in.Title, "Laporan praktikum")
	}
	if in.CourseID != 3 {
		t.Errorf("CourseID = %d, want 3", in.CourseID)
	}
	if want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC); !in.DueDate.Equal(want) {
		t.Errorf("DueDate = %v, want %v", in.DueDate, want)
	}
	if in.ID != nil {
		t.Errorf("ID = %v, want nil when absent", *in.ID)
	}
	if in.Note != nil {
		t.Errorf("Note = %q, want nil when absent", *in.Note)
	}
}

func TestDecode_OptionalID(t *testing.T) {
	v := New()
	fields := validFields()
	fields["id"] = "123"

	var in sampleInput
	if errs := v.Decode(fields, &in); errs != nil {
		t.Fatalf("Decode() errors = %v", errs.Map())
	}
	if in.ID == nil || *in.ID != 123 {
		t.Errorf("ID = %v, want 123", in.ID)
	}
}

func TestDecode_SchemaMessages(t *testing.T) {
	v := New()
	fields := validFields()
	fields["title"] = "ab"
	fields["course_id"] = ""
	fields["due_date"] = ""
	fields["member_id"] = "not-a-uuid"

	var in sampleInput
	errs := v.Decode(fields, &in)
	if errs == nil {
		t.Fatal("Decode() = nil, want errors")
	}

	want := map[string]string{
		"title":     "Judul minimal 3 karakter.",
		"course_id": "Mata kuliah wajib dipilih.",
		"due_date":  "Tanggal jatuh tempo wajib diisi.",
		"member_id": "Member tidak valid",
	}
	for field, msg := range want {
		got := errs.Get(field)
		if len(got) == 0 || got[0] != msg {
			t.Errorf("errors[%s] = %v, want [%q]", field, got, msg)
		}
	}
	if errs.Len() != len(want) {
		t.Errorf("error field count = %d, want %d (%v)", errs.Len(), len(want), errs.Fields())
	}
}

func TestDecode_HHMM(t *testing.T) {
	v := New()
	for _, bad := range []string{"1000", "24:00", "9:30", "12:60", ""} {
		t.Run(bad, func(t *testing.T) {
			fields := validFields()
			fields["start_time"] = bad

			var in sampleInput
			errs := v.Decode(fields, &in)
			if errs == nil {
				t.Fatalf("Decode(start_time=%q) = nil, want error", bad)
			}
			if got := errs.Get("start_time"); len(got) == 0 || got[0] != "Format waktu tidak valid." {
				t.Errorf("start_time errors = %v, want [%q]", got, "Format waktu tidak valid.")
			}
		})
	}
}

func TestDecode_FiniteRejectsInfinityAndNaN(t *testing.T) {
	v := New()
	for _, bad := range []string{"Inf", "Infinity", "-Inf", "NaN"} {
		t.Run(bad, func(t *testing.T) {
			fields := validFields()
			fields["weight"] = bad

			var in sampleInput
			errs := v.Decode(fields, &in)
			if errs == nil || !errs.Has("weight") {
				t.Fatalf("Decode(weight=%q): want a weight error", bad)
			}
		})
	}

	fields := validFields()
	fields["weight"] = "2.5"
	var in sampleInput
	if errs := v.Decode(fields, &in); errs != nil {
		t.Errorf("Decode(weight=2.5) = %v, want nil", errs.Map())
	}
}

func TestDecode_CoercionFailureIsReportedOnce(t *testing.T) {
	v := New()
	fields := validFields()
	fields["course_id"] = "abc"
	fields["due_date"] = "besok"

	var in sampleInput
	errs := v.Decode(fields, &in)
	if errs == nil {
		t.Fatal("Decode() = nil, want errors")
	}
	if got := errs.Get("course_id"); len(got) != 1 || got[0] != "Mata kuliah wajib dipilih." {
		t.Errorf("course_id errors = %v, want a single schema message", got)
	}
	if got := errs.Get("due_date"); len(got) != 1 || got[0] != "Tanggal jatuh tempo wajib diisi." {
		t.Errorf("due_date errors = %v, want a single schema message", got)
	}
}

func TestDecode_FallbackTranslation(t *testing.T) {
	v := New()
	fields := validFields()
	fields["status"] = "archived"

	var in sampleInput
	errs := v.Decode(fields, &in)
	if errs == nil {
		t.Fatal("Decode() = nil, want errors")
	}
	got := errs.Get("status")
	if len(got) != 1 || got[0] == "" || got[0] == "oneof" {
		t.Errorf("status errors = %v, want a translated message", got)
	}
}

func TestFieldErrors_FirstFollowsDeclarationOrder(t *testing.T) {
	v := New()
	fields := validFields()
	fields["start_time"] = "1000"
	fields["title"] = "x"

	var in sampleInput
	errs := v.Decode(fields, &in)
	if errs == nil {
		t.Fatal("Decode() = nil, want errors")
	}
	if got := errs.First(); got != "Judul minimal 3 karakter." {
		t.Errorf("First() = %q, want title message first", got)
	}
	fieldsOrder := errs.Fields()
	if len(fieldsOrder) != 2 || fieldsOrder[0] != "title" || fieldsOrder[1] != "start_time" {
		t.Errorf("Fields() = %v, want [title start_time]", fieldsOrder)
	}
}

func TestFieldErrors_Empty(t *testing.T) {
	var errs *FieldErrors
	if errs.Len() != 0 {
		t.Errorf("nil Len() = %d, want 0", errs.Len())
	}
	if got := errs.First(); got != DefaultMessage {
		t.Errorf("nil First() = %q, want %q", got, DefaultMessage)
	}
	if errs.Map() != nil {
		t.Error("nil Map() should be nil")
	}
}

func TestIsTime(t *testing.T) {
	if !IsTime("23:59") || !IsTime("00:00") {
		t.Error("expected boundary times to be valid")
	}
	if IsTime("1000") || IsTime("7:05") {
		t.Error("expected malformed times to be rejected")
	}
}

func TestLowerFields(t *testing.T) {
	in := map[string]string{"user_id": " ABCDEF ", "name": "Tim A"}
	got := LowerFields(in, "user_id", "missing")

	if got["user_id"] != "abcdef" || got["name"] != "Tim A" {
		t.Errorf("LowerFields() = %v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Error("LowerFields should not add absent keys")
	}
	if in["user_id"] != " ABCDEF " {
		t.Error("LowerFields must not modify the input map")
	}
}
