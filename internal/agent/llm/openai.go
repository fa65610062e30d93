package llm

import (
	"context"
	"os"
	"strings"
	"time"

	tiktoken "github.com/pkoukk/tiktoken-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/traeagent/trae-agent-go/internal/agent/tools"
)

// OpenAIClient implements Client against the OpenAI chat-completions
// API, including native tool-calling.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds an OpenAIClient, resolving the API key via
// the OPENAI_API_KEY environment variable (the environment leg of the
// CLI > configured > environment precedence documented in
// internal/config).
func NewOpenAIClient(model string) (*OpenAIClient, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, &Error{Kind: ErrNoAPIKey, Message: "OPENAI_API_KEY environment variable not set"}
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}, nil
}

func (o *OpenAIClient) Name() string  { return "openai" }
func (o *OpenAIClient) Model() string { return o.model }

// Complete implements Client.
func (o *OpenAIClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	messages := toOpenAIMessages(req)
	toolDefs := toOpenAITools(req.Tools)

	chatReq := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	}
	if len(toolDefs) > 0 {
		chatReq.Tools = toolDefs
	}
	if req.MaxTokens > 0 {
		chatReq.MaxCompletionTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		chatReq.Temperature = float32(req.Temperature)
	}
	if len(req.StopSequences) > 0 {
		chatReq.Stop = req.StopSequences
	}
	if req.ToolChoice != nil {
		chatReq.ToolChoice = toOpenAIToolChoice(req.ToolChoice)
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, &Error{Kind: ErrAPI, Message: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Kind: ErrParsing, Message: "OpenAI returned no choices"}
	}

	choice := resp.Choices[0]
	out := &Response{
		Content:    choice.Message.Content,
		StopReason: mapFinishReason(choice.FinishReason),
		Duration:   time.Since(start),
		Model:      resp.Model,
		Usage: TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if out.Usage.TotalTokens == 0 {
		out.Usage = estimateUsage(o.model, req, choice.Message.Content)
	}

	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func toOpenAIMessages(req *Request) []openai.ChatCompletionMessage {
	var out []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleTool:
			for _, tr := range m.ToolResults {
				out = append(out, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    tr.Content,
					ToolCallID: tr.ToolCallID,
				})
			}
		case RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
			for _, tc := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, msg)
		default:
			role := openai.ChatMessageRoleUser
			if m.Role == RoleSystem {
				role = openai.ChatMessageRoleSystem
			}
			out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
		}
	}
	return out
}

func toOpenAITools(defs []tools.Definition) []openai.Tool {
	var out []openai.Tool
	for _, d := range defs {
		properties := map[string]any{}
		for name, p := range d.Parameters {
			properties[name] = paramToSchema(p)
		}
		params := map[string]any{
			"type":       "object",
			"properties": properties,
		}
		if len(d.Required) > 0 {
			params["required"] = d.Required
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func paramToSchema(p tools.ParamDef) map[string]any {
	schema := map[string]any{"type": string(p.Type), "description": p.Description}
	if len(p.Enum) > 0 {
		schema["enum"] = p.Enum
	}
	if p.Items != nil {
		schema["items"] = paramToSchema(*p.Items)
	}
	if len(p.Properties) > 0 {
		props := map[string]any{}
		for name, child := range p.Properties {
			props[name] = paramToSchema(child)
		}
		schema["properties"] = props
	}
	return schema
}

func toOpenAIToolChoice(tc *ToolChoice) any {
	switch tc.Type {
	case ToolChoiceNoneType:
		return "none"
	case ToolChoiceRequiredType, ToolChoiceAnyType:
		return "required"
	default:
		return "auto"
	}
}

func mapFinishReason(reason openai.FinishReason) ChoiceKind {
	switch reason {
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		return StopToolUse
	case openai.FinishReasonLength:
		return StopMaxTokens
	default:
		return StopEndTurn
	}
}

// estimateUsage approximates token counts via tiktoken-go when the
// provider's response omits usage data.
func estimateUsage(model string, req *Request, completion string) TokenUsage {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return TokenUsage{}
		}
	}

	var promptText strings.Builder
	promptText.WriteString(req.SystemPrompt)
	for _, m := range req.Messages {
		promptText.WriteString(m.Content)
	}

	promptTokens := len(enc.Encode(promptText.String(), nil, nil))
	completionTokens := len(enc.Encode(completion, nil, nil))
	return TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}
