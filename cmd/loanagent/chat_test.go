package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/tbxark/loanagent/agent"
	"github.com/tbxark/loanagent/catalog"
	"github.com/tbxark/loanagent/dialogue"
	"github.com/tbxark/loanagent/extract"
	"github.com/tbxark/loanagent/sink"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line  string
		field string
		text  string
		ok    bool
	}{
		{"/commitment car loan 300/month", "commitments", "car loan 300/month", true},
		{"/id passport.png", "uploaded_ids", "passport.png", true},
		{"/document  payslip.pdf ", "uploaded_documents", "payslip.pdf", true},
		{"/unknown x", "", "", false},
		{"Jane Doe", "", "", false},
	}
	for _, tc := range cases {
		field, text, ok := parseCommand(tc.line)
		if field != tc.field || text != tc.text || ok != tc.ok {
			t.Errorf("parseCommand(%q) = %q, %q, %v", tc.line, field, text, ok)
		}
	}
}

func newChatApp(t *testing.T, cat *catalog.Catalog) *app {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	flow, err := agent.NewFlow(
		cat,
		extract.New(nil),
		sink.Discard{},
		agent.NewMemorySnapshotStore(),
		agent.WithEngineOptions(dialogue.WithLogger(quiet)),
	)
	if err != nil {
		t.Fatalf("new flow: %v", err)
	}
	return &app{flow: flow, logger: quiet}
}

func TestRunChatCompletesAndRestarts(t *testing.T) {
	cat := catalog.Default()
	a := newChatApp(t, cat)

	lines := []string{"Jane Doe", "/commitment car loan"}
	for i := 2; i < cat.PlanLen(); i++ {
		lines = append(lines, "answer "+cat.PlanAt(i).Name)
	}
	var out bytes.Buffer
	if err := runChat(context.Background(), a, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out); err != nil {
		t.Fatalf("run chat: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, cat.CompletionMessage()) {
		t.Fatalf("completion missing from output:\n%s", text)
	}
	for _, want := range []string{"Application summary", "whatsapp_opt_in", "car loan", "answer whatsapp_opt_in"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q", want)
		}
	}
	if strings.Count(text, cat.Question("first_name")) != 2 {
		t.Error("session should restart after completion")
	}
}

func TestRunChatAnswersUnterminatedLastLine(t *testing.T) {
	cat := catalog.Default()
	a := newChatApp(t, cat)

	lines := []string{"Jane Doe"}
	for i := 2; i < cat.PlanLen(); i++ {
		lines = append(lines, "answer "+cat.PlanAt(i).Name)
	}
	var out bytes.Buffer
	if err := runChat(context.Background(), a, strings.NewReader(strings.Join(lines, "\n")), &out); err != nil {
		t.Fatalf("run chat: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, cat.CompletionMessage()) {
		t.Fatalf("last answer without a newline was dropped:\n%s", text)
	}
	if !strings.HasSuffix(text, "Input closed. Goodbye.\n") {
		t.Errorf("chat should end after the last line:\n%s", text)
	}
}
