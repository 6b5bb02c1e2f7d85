package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/loanagent/agent"
	"github.com/tbxark/loanagent/types"
)

const chatSession = "chat"

// repeatableCommands maps chat commands to the repeatable fields they append to.
var repeatableCommands = map[string]string{
	"/commitment": "commitments",
	"/id":         "uploaded_ids",
	"/document":   "uploaded_documents",
}

// parseCommand splits "/id passport.png" into the target field and its text.
func parseCommand(line string) (field, text string, ok bool) {
	name, rest, _ := strings.Cut(line, " ")
	field, ok = repeatableCommands[name]
	if !ok {
		return "", "", false
	}
	return field, strings.TrimSpace(rest), true
}

func runChat(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	ctx = agent.WithStateKey(ctx, chatSession)
	loanAgent := agent.NewAgent(
		"LoanApplicant",
		"An agent that collects a loan application one question at a time",
		a.flow,
	)
	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: loanAgent,
	})

	resp, err := a.flow.Start(ctx, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Assistant: %s\n", resp.Message)

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "You: ")
		line, rErr := reader.ReadString('\n')
		if rErr != nil && (!errors.Is(rErr, io.EOF) || strings.TrimSpace(line) == "") {
			fmt.Fprintln(out, "\nInput closed. Goodbye.")
			return nil
		}
		line = strings.TrimSpace(line)

		var reply string
		if field, text, ok := parseCommand(line); ok {
			resp, err = a.flow.AppendRepeatable(ctx, field, text)
			if err != nil {
				return err
			}
			reply = resp.Message
		} else {
			reply, err = runTurn(ctx, runner, line)
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "Assistant: %s\n", reply)

		snap, err := a.flow.Snapshot(ctx)
		if err != nil {
			return err
		}
		if snap.Phase == types.PhaseCompleted {
			if err := printSummary(ctx, a, out); err != nil {
				return err
			}
			resp, err = a.flow.Start(ctx, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "======\nAssistant: %s\n", resp.Message)
		}
		if rErr != nil {
			fmt.Fprintln(out, "\nInput closed. Goodbye.")
			return nil
		}
	}
}

func runTurn(ctx context.Context, runner *adk.Runner, line string) (string, error) {
	iter := runner.Run(ctx, []adk.Message{schema.UserMessage(line)})
	var reply string
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		if event.Err != nil {
			return "", event.Err
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}
		msg, err := event.Output.MessageOutput.GetMessage()
		if err != nil {
			return "", err
		}
		reply = msg.Content
	}
	if reply == "" {
		return "", fmt.Errorf("agent produced no reply")
	}
	return reply, nil
}

func printSummary(ctx context.Context, a *app, out io.Writer) error {
	rec, err := a.flow.Record(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nApplication summary:\n%s\n", types.FormatRecordTable(rec))
	return nil
}
