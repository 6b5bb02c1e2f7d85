package testcases

import (
	"context"
	"encoding/csv"
	"os"
	"slices"
	"testing"

	"github.com/tbxark/loanagent/agent"
	"github.com/tbxark/loanagent/types"
)

// TestBasicApplication fills a whole application and checks the CSV row.
func TestBasicApplication(t *testing.T) {
	t.Parallel()
	flow, csvPath := NewTestFlow(t)
	ctx := agent.WithStateKey(context.Background(), "basic")

	resp, err := flow.Start(ctx, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	resp, err = flow.Invoke(ctx, &agent.Request{UserInput: "Jane van der Berg"})
	if err != nil {
		t.Fatalf("name: %v", err)
	}
	if resp.Field != "telephone" {
		t.Fatalf("expected telephone after the full name, got %q", resp.Field)
	}
	if _, err := flow.AppendRepeatable(ctx, "commitments", "credit card, 200/month"); err != nil {
		t.Fatalf("commitment: %v", err)
	}

	resp = Drive(ctx, t, flow, resp, DefaultAnswers())
	if !resp.Completed || resp.Phase != types.PhaseCompleted {
		t.Fatalf("expected completion, got %+v", resp.Response)
	}
	if resp.Message != flow.Catalog().CompletionMessage() {
		t.Errorf("completion message = %q", resp.Message)
	}
	if resp.Metadata["persist_error"] != "" {
		t.Fatalf("persist failed: %s", resp.Metadata["persist_error"])
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("csv has %d rows, want header + 1", len(rows))
	}
	header, row := rows[0], rows[1]
	cell := func(name string) string {
		i := slices.Index(header, name)
		if i < 0 {
			t.Fatalf("column %s missing", name)
		}
		return row[i]
	}
	if cell("first_name") != "Jane" || cell("last_name") != "van der Berg" {
		t.Errorf("name = %q %q", cell("first_name"), cell("last_name"))
	}
	if cell("email") != "jane.doe@example.com" {
		t.Errorf("email = %q", cell("email"))
	}
	if cell("commitments") != `["credit card, 200/month"]` {
		t.Errorf("commitments = %q", cell("commitments"))
	}
	if cell("account_number") != "" {
		t.Errorf("field outside the plan was filled: %q", cell("account_number"))
	}
}

// TestDeclineIsReprompted keeps asking the same question until an answer arrives.
func TestDeclineIsReprompted(t *testing.T) {
	t.Parallel()
	flow, _ := NewTestFlow(t, WithExtractor(nil))
	ctx := agent.WithStateKey(context.Background(), "decline")

	first, err := flow.Start(ctx, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 1; i <= 2; i++ {
		resp, err := flow.Invoke(ctx, &agent.Request{UserInput: "skip"})
		if err != nil {
			t.Fatalf("decline: %v", err)
		}
		if resp.Message != first.Message || resp.Captured || resp.Reprompts != i {
			t.Errorf("round %d: %+v", i, resp.Response)
		}
	}
	resp, err := flow.Invoke(ctx, &agent.Request{UserInput: "Jane"})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if resp.Field != "last_name" {
		t.Errorf("single token should leave last_name outstanding, got %q", resp.Field)
	}
}
