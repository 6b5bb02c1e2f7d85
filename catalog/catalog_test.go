package catalog

import (
	"errors"
	"testing"

	"github.com/tbxark/loanagent/types"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()
	c := Default()

	if got := len(c.Fields()); got != 32 {
		t.Fatalf("expected 32 record fields, got %d", got)
	}
	plan := c.Plan()
	if len(plan) != 21 {
		t.Fatalf("expected 21 plan fields, got %d", len(plan))
	}
	if plan[0] != "first_name" || plan[1] != "last_name" || plan[len(plan)-1] != "whatsapp_opt_in" {
		t.Errorf("unexpected plan order: %v", plan)
	}

	first, ok := c.Field("first_name")
	if !ok || first.Kind != types.KindCompound || first.Spill != "last_name" {
		t.Errorf("first_name should be compound spilling into last_name, got %+v", first)
	}
	for _, name := range []string{"commitments", "uploaded_ids", "uploaded_documents"} {
		f, ok := c.Field(name)
		if !ok || f.Kind != types.KindRepeatable {
			t.Errorf("%s should be repeatable, got %+v", name, f)
		}
		if c.PlanIndex(name) != -1 {
			t.Errorf("%s must not be planned", name)
		}
	}
	if c.CompletionMessage() != "Thank you! Your application has been completed and saved." {
		t.Errorf("unexpected completion message %q", c.CompletionMessage())
	}
}

func TestQuestionFallback(t *testing.T) {
	t.Parallel()
	c := Default()

	if got := c.Question("telephone"); got != "What is the best contact number to reach you?" {
		t.Errorf("telephone question = %q", got)
	}
	if got := c.Question("account_number"); got != "Please provide information about account_number" {
		t.Errorf("fallback question = %q", got)
	}
	if got := c.Question("nope"); got != "Please provide information about nope" {
		t.Errorf("unknown field question = %q", got)
	}
}

func TestNewRecordIsEmpty(t *testing.T) {
	t.Parallel()
	c := Default()
	rec := c.NewRecord()
	for _, name := range c.FieldNames() {
		if !rec.IsAbsent(name) {
			t.Errorf("field %s should start absent", name)
		}
	}
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		yaml string
	}{
		{"no fields", "plan: [a]"},
		{"duplicate field", "fields: [{name: a}, {name: a}]"},
		{"unknown kind", "fields: [{name: a, kind: blob}]"},
		{"plan unknown field", "fields: [{name: a}]\nplan: [b]"},
		{"plan repeatable", "fields: [{name: a, kind: repeatable}]\nplan: [a]"},
		{"plan duplicate", "fields: [{name: a}]\nplan: [a, a]"},
		{"spill missing", "fields: [{name: a, kind: compound, spill: b}]"},
		{"spill self", "fields: [{name: a, kind: compound, spill: a}]"},
		{"spill repeatable", "fields: [{name: a, kind: compound, spill: b}, {name: b, kind: repeatable}]"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load([]byte(tc.yaml))
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Fatalf("expected ErrInvalidCatalog, got %v", err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()
	c, err := Load([]byte("fields: [{name: a, question: 'A?'}, {name: b}]\nplan: [a, b]"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.CompletionMessage() == "" {
		t.Error("completion message should default")
	}
	if f, _ := c.Field("b"); f.Kind != types.KindScalar {
		t.Errorf("kind should default to scalar, got %q", f.Kind)
	}
	if c.Question("b") != "Please provide information about b" {
		t.Errorf("unexpected fallback %q", c.Question("b"))
	}
	if c.PlanAt(1).Name != "b" {
		t.Errorf("PlanAt(1) = %q", c.PlanAt(1).Name)
	}
}
