package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/tidwall/gjson"
)

// OpenRouterConfig configures the OpenRouter chat-completions driver.
type OpenRouterConfig struct {
	BaseURL  string
	APIKey   string
	Model    string
	SiteURL  string
	SiteName string
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// openRouterModel speaks the OpenAI chat-completions wire format through
// openai-go and implements eino's BaseChatModel.
type openRouterModel struct {
	client openai.Client
	model  string
}

var _ model.BaseChatModel = (*openRouterModel)(nil)

func NewOpenRouterModel(cfg OpenRouterConfig) (*openRouterModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("model is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &openRouterModel{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

func (m *openRouterModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	modelName := m.model
	options := model.GetCommonOptions(&model.Options{Model: &modelName}, opts...)
	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}

	messages, err := toOpenAIMessages(input)
	if err != nil {
		return nil, err
	}

	var httpResp *http.Response
	completion, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(modelName),
		Messages: messages,
	}, option.WithResponseInto(&httpResp))
	if err != nil {
		if perr := providerErrorFrom(httpResp); perr != nil {
			return nil, perr
		}
		return nil, err
	}
	if completion == nil || !completion.JSON.Choices.Valid() || len(completion.Choices) == 0 {
		return nil, ErrMalformedResponse
	}
	choice := completion.Choices[0]
	if !choice.JSON.Message.Valid() {
		return nil, ErrMalformedResponse
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
	}, nil
}

// Stream is served by a single Generate call; the reply is delivered as one chunk.
func (m *openRouterModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func providerErrorFrom(resp *http.Response) *ProviderError {
	if resp == nil || resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	var body string
	if resp.Body != nil {
		raw, _ := io.ReadAll(resp.Body)
		body = string(raw)
	}
	return &ProviderError{StatusCode: resp.StatusCode, Detail: errorDetail(body), Body: body}
}

// errorDetail returns the "error" field of a JSON error body.
func errorDetail(body string) string {
	res := gjson.Get(body, "error")
	if !res.Exists() {
		return ""
	}
	if res.Type == gjson.String {
		return res.String()
	}
	return res.Raw
}

func toOpenAIMessages(input []*schema.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))
	for i, msg := range input {
		if msg == nil {
			return nil, fmt.Errorf("message %d is nil", i)
		}
		switch msg.Role {
		case schema.System:
			out = append(out, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		case schema.User:
			if len(msg.MultiContent) == 0 {
				out = append(out, openai.UserMessage(msg.Content))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.MultiContent))
			for _, part := range msg.MultiContent {
				switch part.Type {
				case schema.ChatMessagePartTypeText:
					parts = append(parts, openai.TextContentPart(part.Text))
				case schema.ChatMessagePartTypeImageURL:
					if part.ImageURL == nil {
						return nil, fmt.Errorf("message %d: image part without url", i)
					}
					parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: part.ImageURL.URL}))
				default:
					return nil, fmt.Errorf("message %d: unsupported content part type %q", i, part.Type)
				}
			}
			out = append(out, openai.UserMessage(parts))
		default:
			return nil, fmt.Errorf("message %d: unsupported role %q", i, msg.Role)
		}
	}
	return out, nil
}
