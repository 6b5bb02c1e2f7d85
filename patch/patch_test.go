package patch

import (
	"testing"

	"github.com/tbxark/loanagent/types"
)

func newRecord() *types.Record {
	return types.NewRecord("first_name", "email", "commitments")
}

func TestApply(t *testing.T) {
	t.Parallel()
	rec := newRecord()
	out, err := Apply(rec, []Operation{
		{Op: OperationReplace, Path: "/first_name", Value: "Jane"},
		{Op: OperationReplace, Path: "/commitments", Value: []string{"car loan"}},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Get("first_name").Text() != "Jane" {
		t.Errorf("first_name = %q", out.Get("first_name").Text())
	}
	if items := out.Get("commitments").Items(); len(items) != 1 || items[0] != "car loan" {
		t.Errorf("commitments = %v", items)
	}
	if !rec.IsAbsent("first_name") {
		t.Error("apply must not mutate its input")
	}
	if got := out.Fields(); len(got) != 3 || got[0] != "first_name" {
		t.Errorf("field order lost: %v", got)
	}
}

func TestApplyAppendToSequence(t *testing.T) {
	t.Parallel()
	rec := newRecord()
	_ = rec.Append("commitments", "car loan")
	out, err := Apply(rec, []Operation{{Op: OperationAdd, Path: "/commitments/-", Value: "mortgage"}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if items := out.Get("commitments").Items(); len(items) != 2 || items[1] != "mortgage" {
		t.Errorf("commitments = %v", items)
	}
}

func TestApplyDropsUnknownMembers(t *testing.T) {
	t.Parallel()
	out, err := Apply(newRecord(), []Operation{{Op: OperationReplace, Path: "/nickname", Value: "JD"}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Has("nickname") {
		t.Error("unknown member leaked into the record")
	}
}

func TestDiffNeverEdits(t *testing.T) {
	t.Parallel()
	current := newRecord()
	_ = current.Set("first_name", types.Scalar("Jane"))

	initial := FromStrings(current.Fields(), map[string]string{
		"first_name": "Janet",
		"email":      "jane@example.com",
	})
	ops := Diff(current, initial)
	if len(ops) != 1 || ops[0].Path != "/email" || ops[0].Op != OperationReplace {
		t.Fatalf("unexpected ops %+v", ops)
	}
}

func TestFromStringsKeepsUnknownNames(t *testing.T) {
	t.Parallel()
	rec := FromStrings([]string{"email"}, map[string]string{"shoe_size": "42"})
	ops := Diff(newRecord(), rec)
	if len(ops) != 1 || ops[0].Op != OperationAdd || ops[0].Path != "/shoe_size" {
		t.Fatalf("unexpected ops %+v", ops)
	}
	if err := Validate(ops, map[string]bool{"email": true}); err == nil {
		t.Error("unknown field should fail validation")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	allowed := map[string]bool{"email": true, "commitments": true, "a/b": true}
	valid := []Operation{
		{Op: OperationAdd, Path: "/email", Value: "x"},
		{Op: OperationAdd, Path: "/commitments/-", Value: "x"},
		{Op: OperationReplace, Path: "/a~1b", Value: "x"},
	}
	if err := Validate(valid, allowed); err != nil {
		t.Fatalf("validate: %v", err)
	}
	invalid := [][]Operation{
		{{Op: OperationAdd, Path: "email", Value: "x"}},
		{{Op: OperationAdd, Path: "/phone", Value: "x"}},
		{{Op: OperationAdd, Path: "/commitments/0", Value: "x"}},
		{{Op: OperationRemove, Path: "/email"}},
	}
	for _, ops := range invalid {
		if err := Validate(ops, allowed); err == nil {
			t.Errorf("expected %+v to fail", ops)
		}
	}
}

func TestFieldNameAndPointer(t *testing.T) {
	t.Parallel()
	if FieldName("/commitments/-") != "commitments" {
		t.Error("FieldName should strip the append slot")
	}
	if FieldName(Pointer("a/b~c")) != "a/b~c" {
		t.Error("pointer escaping does not round trip")
	}
	if FieldName("email") != "" {
		t.Error("relative paths have no field")
	}
}
