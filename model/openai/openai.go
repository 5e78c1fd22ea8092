// Package openai adapts the OpenAI Chat Completions API (including
// function/tool calling) to the generic model.Model interface.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/relabs-ai/relay/model"
)

// Options configure the OpenAI model adapter.
type Options struct {
	// Model is the default model id, used when the request leaves it empty.
	Model               string
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind model.Model.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates an adapter using the default client (API key from env).
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates an adapter from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Complete implements model.Model.
func (m *Model) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	params := m.buildParams(req)

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response contained no choices")
	}

	choice := resp.Choices[0]

	out := &model.Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, model.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: []byte(tc.Function.Arguments),
		})
	}

	return out, nil
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Provider: "openai", SupportsTools: true}
}

func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	modelID := req.Model
	if modelID == "" {
		modelID = m.opts.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:               modelID,
		Messages:            buildMessages(req),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	// Verbosity has no chat-completions knob; it is carried through the
	// instructions instead. Effort maps directly.
	if req.Settings.ReasoningEffort != "" {
		params.ReasoningEffort = shared.ReasoningEffort(req.Settings.ReasoningEffort)
	}

	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
		for i, tdef := range req.Tools {
			tools[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        tdef.Name,
					Description: openai.String(tdef.Description),
					Parameters:  tdef.Parameters,
				},
			}
		}
		params.Tools = tools
	}

	return params
}

// buildMessages converts neutral messages into SDK message unions,
// prepending the instruction block as a system message.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(msg.Content))
		case "assistant":
			if len(msg.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(msg.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case "tool":
			messages = append(messages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	return messages
}
