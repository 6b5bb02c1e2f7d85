package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/tbxark/loanagent/catalog"
	"github.com/tbxark/loanagent/extract/extracttest"
	"github.com/tbxark/loanagent/types"
)

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	cat := catalog.Default()
	extractor := extracttest.NewScripted(map[string]string{"first_name": "Jane"})
	e := NewEngine(cat, extractor, nil, quietLogger())
	ctx := context.Background()
	e.ProcessTurn(ctx, "Jane Doe")
	e.ProcessTurn(ctx, "no phone")
	if _, err := e.AppendRepeatable(ctx, "commitments", "car loan"); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := json.Marshal(e.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	restored, err := Restore(cat, &snap, extractor, nil, quietLogger())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if restored.Pointer() != e.Pointer() {
		t.Errorf("pointer = %d, want %d", restored.Pointer(), e.Pointer())
	}
	if restored.Reprompts("telephone") != 1 {
		t.Errorf("reprompts = %d", restored.Reprompts("telephone"))
	}
	if restored.LastQuestion() != e.LastQuestion() {
		t.Errorf("last question = %q", restored.LastQuestion())
	}
	rec := restored.Record()
	if rec.Get("last_name").Text() != "Doe" || rec.Get("commitments").Items()[0] != "car loan" {
		t.Errorf("record not restored: %s", types.FormatRecordTable(rec))
	}
	next, _ := restored.NextField()
	if next.Name != "telephone" {
		t.Errorf("next field = %q", next.Name)
	}
}

func TestRestoreRejectsBadSnapshots(t *testing.T) {
	t.Parallel()
	cat := catalog.Default()
	cases := map[string]*Snapshot{
		"nil":            nil,
		"version":        {Version: "0.1"},
		"catalog":        {Version: snapshotVersion, Catalog: "mortgage"},
		"pointer range":  {Version: snapshotVersion, Pointer: 99},
		"unknown field":  {Version: snapshotVersion, Record: map[string]types.Value{"shoe_size": types.Scalar("42")}},
		"wrong kind":     {Version: snapshotVersion, Record: map[string]types.Value{"email": types.Sequence("a")}},
		"pointer ahead":  {Version: snapshotVersion, Pointer: 2, Record: map[string]types.Value{"first_name": types.Scalar("Jane")}},
		"scalar in list": {Version: snapshotVersion, Record: map[string]types.Value{"commitments": types.Scalar("x")}},
	}
	for name, snap := range cases {
		if _, err := Restore(cat, snap, nil, nil); !errors.Is(err, ErrBadSnapshot) {
			t.Errorf("%s: expected ErrBadSnapshot, got %v", name, err)
		}
	}
}
