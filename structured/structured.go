package structured

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

var ErrNoToolCall = errors.New("no tool call in model response")

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

// Chain forces the chat model to answer through a single tool whose arguments
// decode into TOutput.
type Chain[TInput, TOutput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ChatModel     model.ToolCallingChatModel
	ToolInfo      *schema.ToolInfo
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[TInput, TOutput]{
		PromptBuilder: promptBuilder,
		ChatModel:     chatModel,
		ToolInfo:      toolInfo,
	}, nil
}

func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	response, err := s.ChatModel.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{s.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, s.ToolInfo.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("call model failed: %w", err)
	}
	return DecodeToolCall[TOutput](response, s.ToolInfo.Name)
}

// DecodeToolCall decodes the arguments of the first call to toolName in msg.
// A response carrying calls to other tools only is an error.
func DecodeToolCall[TOutput any](msg *schema.Message, toolName string) (*TOutput, error) {
	if msg == nil || len(msg.ToolCalls) == 0 {
		content := ""
		if msg != nil {
			content = msg.Content
		}
		return nil, fmt.Errorf("%w: %s", ErrNoToolCall, content)
	}
	for _, call := range msg.ToolCalls {
		if toolName != "" && call.Function.Name != "" && call.Function.Name != toolName {
			continue
		}
		var result TOutput
		if err := sonic.UnmarshalString(call.Function.Arguments, &result); err != nil {
			return nil, fmt.Errorf("parse ToolCall arguments failed: %w", err)
		}
		return &result, nil
	}
	return nil, fmt.Errorf("%w: expected %s", ErrNoToolCall, toolName)
}

func (s *Chain[TInput, TOutput]) GetToolInfo() *schema.ToolInfo {
	return s.ToolInfo
}
