package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/loanagent/structured"
	"github.com/tbxark/loanagent/types"
)

const (
	extractFieldToolName        = "extract_field"
	extractFieldToolDescription = "Report the value of the target field found in the user's answer, or found=false when the answer does not contain it."
)

// DefaultExtractSystemPromptTemplate is the default system prompt used by
// ToolBasedExtractor. It may contain a single "%s" placeholder for the tool name.
const DefaultExtractSystemPromptTemplate = `You help a loan officer fill an application form from a chat with the applicant.

Extract the value of the target field from the user's answer, nothing else.
- Use the assistant question as context for short answers such as "yes", "no" or a bare number.
- Copy the value as the user gave it; do not invent, normalise or guess.
- If the answer does not contain the target field, set found to false and leave value empty.

Call the '%s' tool with the result.`

type PromptBuilder func(systemPrompt string) structured.PromptBuilder[*types.ExtractRequest]

type extractorOptions struct {
	systemPromptTemplate string
	promptBuilder        PromptBuilder
}

type Option func(*extractorOptions)

func WithSystemPromptTemplate(systemPromptTemplate string) Option {
	return func(o *extractorOptions) {
		o.systemPromptTemplate = systemPromptTemplate
	}
}

func WithPromptBuilder(promptBuilder PromptBuilder) Option {
	return func(o *extractorOptions) {
		o.promptBuilder = promptBuilder
	}
}

func defaultPromptBuilder(systemPrompt string) structured.PromptBuilder[*types.ExtractRequest] {
	return func(ctx context.Context, req *types.ExtractRequest) ([]*schema.Message, error) {
		return []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(types.FormatExtractRequest(req)),
		}, nil
	}
}

type extractFieldInput struct {
	Found bool   `json:"found" jsonschema:"required,description=Whether the answer contains the target field"`
	Value string `json:"value" jsonschema:"description=The extracted value exactly as given by the user"`
}

type ToolBasedExtractor struct {
	chain *structured.Chain[*types.ExtractRequest, extractFieldInput]
}

func NewToolBasedExtractor(chatModel model.ToolCallingChatModel, opts ...Option) (*ToolBasedExtractor, error) {
	options := extractorOptions{
		systemPromptTemplate: DefaultExtractSystemPromptTemplate,
		promptBuilder:        defaultPromptBuilder,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	systemPrompt := options.systemPromptTemplate
	if strings.Contains(systemPrompt, "%s") {
		systemPrompt = fmt.Sprintf(systemPrompt, extractFieldToolName)
	}
	chain, err := structured.NewChain[*types.ExtractRequest, extractFieldInput](
		chatModel,
		options.promptBuilder(systemPrompt),
		extractFieldToolName,
		extractFieldToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedExtractor{chain: chain}, nil
}

func (e *ToolBasedExtractor) Extract(ctx context.Context, req *types.ExtractRequest) (string, bool, error) {
	result, err := e.chain.Invoke(ctx, req)
	if err != nil {
		return "", false, fmt.Errorf("extract %s: %w", req.Field.Name, err)
	}
	if result == nil || !result.Found || IsAbsentText(result.Value) {
		return "", false, nil
	}
	return strings.TrimSpace(result.Value), true, nil
}
