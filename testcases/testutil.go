// Package testcases runs whole loan application sessions end to end.
package testcases

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/tbxark/loanagent/agent"
	"github.com/tbxark/loanagent/catalog"
	"github.com/tbxark/loanagent/config"
	"github.com/tbxark/loanagent/dialogue"
	"github.com/tbxark/loanagent/extract"
	"github.com/tbxark/loanagent/extract/extracttest"
	"github.com/tbxark/loanagent/sink"
)

type flowOptions struct {
	extractor extract.Extractor
	snapshots *agent.SnapshotStore
	csvPath   string
}

type FlowOption func(*flowOptions)

func WithExtractor(extractor extract.Extractor) FlowOption {
	return func(o *flowOptions) {
		o.extractor = extractor
	}
}

func WithSnapshots(store *agent.SnapshotStore) FlowOption {
	return func(o *flowOptions) {
		o.snapshots = store
	}
}

func WithCSVPath(path string) FlowOption {
	return func(o *flowOptions) {
		o.csvPath = path
	}
}

func InitChatModel(t *testing.T) *openai.ChatModel {
	if os.Getenv("LOANAGENT_RUN_LIVE_TESTS") != "1" {
		t.Skip("set LOANAGENT_RUN_LIVE_TESTS=1 to run live LLM tests")
		return nil
	}

	ctx := context.Background()
	conf, err := config.Load("../config.json")
	if err != nil {
		t.Skipf("failed to load config: %v", err)
		return nil
	}
	if !conf.HasModel() {
		t.Skip("config.json api_key is empty")
		return nil
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  conf.APIKey,
		Model:   conf.Model,
		BaseURL: conf.BaseURL,
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil
	}
	return chatModel
}

// NewTestFlow builds a flow over the default catalog that writes completed
// applications to a CSV file in a temporary directory.
func NewTestFlow(t *testing.T, opts ...FlowOption) (*agent.Flow, string) {
	t.Helper()
	o := &flowOptions{
		extractor: extracttest.Echo{},
		csvPath:   filepath.Join(t.TempDir(), "responses.csv"),
	}
	for _, opt := range opts {
		opt(o)
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	flow, err := agent.NewFlow(
		catalog.Default(),
		o.extractor,
		sink.NewCSVSink(o.csvPath),
		o.snapshots,
		agent.WithTranscripts(agent.NewMemoryTranscriptStore(agent.KeepLastNTrimmer{N: 100})),
		agent.WithEngineOptions(dialogue.WithLogger(quiet)),
	)
	if err != nil {
		t.Fatalf("new flow: %v", err)
	}
	return flow, o.csvPath
}

// Answers holds one reply per plan field, keyed by field name.
type Answers map[string]string

// DefaultAnswers answers every plan field after the name.
func DefaultAnswers() Answers {
	return Answers{
		"telephone":           "+61 400 000 000",
		"email":               "jane.doe@example.com",
		"date_of_birth":       "1990-04-12",
		"loan_amount":         "15000",
		"loan_purpose":        "car",
		"membership_status":   "member",
		"marital_status":      "single",
		"employer_name":       "Acme Pty Ltd",
		"self_employed":       "no",
		"primary_income":      "6000",
		"additional_income":   "0",
		"reference1_name":     "John Smith",
		"reference1_relation": "colleague",
		"reference1_contact":  "john@example.com",
		"reference2_name":     "Mary Major",
		"reference2_relation": "friend",
		"reference2_contact":  "+61 400 111 222",
		"declaration":         "yes",
		"whatsapp_opt_in":     "no",
	}
}

// Drive answers the flow's questions from answers until the session completes
// or a question has no answer.
func Drive(ctx context.Context, t *testing.T, flow *agent.Flow, resp *agent.Response, answers Answers) *agent.Response {
	t.Helper()
	for i := 0; i < 100 && !resp.Completed; i++ {
		answer, ok := answers[resp.Field]
		if !ok {
			t.Fatalf("no answer for %q", resp.Field)
		}
		next, err := flow.Invoke(ctx, &agent.Request{UserInput: answer})
		if err != nil {
			t.Fatalf("answer %s: %v", resp.Field, err)
		}
		resp = next
	}
	return resp
}
