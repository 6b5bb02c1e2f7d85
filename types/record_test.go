package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRecordSetAndAppend(t *testing.T) {
	t.Parallel()
	rec := NewRecord("name", "commitments")

	if err := rec.Set("missing", Scalar("x")); err == nil {
		t.Error("setting an unknown field should fail")
	}
	if err := rec.Set("name", Scalar("Jane")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if rec.Get("name").Text() != "Jane" {
		t.Errorf("name = %q", rec.Get("name").Text())
	}

	if err := rec.Append("commitments", "car loan"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := rec.Append("commitments", "mortgage"); err != nil {
		t.Fatalf("append: %v", err)
	}
	items := rec.Get("commitments").Items()
	if len(items) != 2 || items[0] != "car loan" || items[1] != "mortgage" {
		t.Errorf("commitments = %v", items)
	}
	if err := rec.Append("name", "x"); err == nil {
		t.Error("appending to a scalar should fail")
	}
}

func TestRecordCloneIsDeep(t *testing.T) {
	t.Parallel()
	rec := NewRecord("docs")
	_ = rec.Append("docs", "a.pdf")
	cp := rec.Clone()
	_ = rec.Append("docs", "b.pdf")
	if got := len(cp.Get("docs").Items()); got != 1 {
		t.Errorf("clone shares storage, has %d items", got)
	}
}

func TestValueJSON(t *testing.T) {
	t.Parallel()
	rec := NewRecord("a", "b", "c")
	_ = rec.Set("a", Scalar("x"))
	_ = rec.Append("b", "y")
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"a":"x","b":["y"],"c":null}` {
		t.Errorf("unexpected json %s", data)
	}

	var values map[string]Value
	if err := json.Unmarshal([]byte(`{"a":"x","b":["y","z"],"c":null,"d":42}`), &values); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if values["a"].Text() != "x" || len(values["b"].Items()) != 2 || !values["c"].IsAbsent() || values["d"].Text() != "42" {
		t.Errorf("unexpected values %+v", values)
	}
}

func TestFormatRecordTable(t *testing.T) {
	t.Parallel()
	rec := NewRecord("first_name", "email")
	if FormatRecordTable(rec) != "" {
		t.Error("empty record should render nothing")
	}
	_ = rec.Set("first_name", Scalar("Jane"))
	out := FormatRecordTable(rec)
	if !strings.Contains(out, "first_name") || !strings.Contains(out, "Jane") {
		t.Errorf("table missing row: %s", out)
	}
	if strings.Contains(out, "email") {
		t.Errorf("absent field should be skipped: %s", out)
	}
}

func TestFormatExtractRequest(t *testing.T) {
	t.Parallel()
	out := FormatExtractRequest(&ExtractRequest{
		Field:    FieldInfo{Name: "email", DisplayName: "Email address"},
		Question: "What is your email address?",
		Answer:   "it's jane@example.com",
	})
	for _, want := range []string{"email (Email address)", "What is your email address?", "jane@example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q:\n%s", want, out)
		}
	}
}
