package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"chatdesk/internal/models"
	"chatdesk/internal/service/ai"
)

// Adapter turns the display transcript plus the latest turn's content parts
// into a provider request and returns the reply text.
type Adapter struct {
	model        model.BaseChatModel
	systemPrompt string
}

func NewAdapter(chatModel model.BaseChatModel, systemPrompt string) *Adapter {
	return &Adapter{model: chatModel, systemPrompt: systemPrompt}
}

// Assemble builds the outgoing message list. The last user entry carries
// latest; earlier user entries are flattened to their display text. Only the
// first system entry is forwarded, and the configured prompt is prepended when
// the transcript has none.
func (a *Adapter) Assemble(transcript []*models.Message, latest []models.ContentPart) ([]*schema.Message, error) {
	out := make([]*schema.Message, 0, len(transcript)+1)
	seenSystem := false
	last := len(transcript) - 1

	for i, msg := range transcript {
		if msg == nil {
			return nil, fmt.Errorf("transcript entry %d is nil", i)
		}
		switch msg.Role {
		case models.RoleSystem:
			if seenSystem {
				continue
			}
			seenSystem = true
			out = append(out, schema.SystemMessage(msg.Content))
		case models.RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		case models.RoleUser:
			if i == last {
				parts, err := toMessageParts(latest)
				if err != nil {
					return nil, err
				}
				out = append(out, &schema.Message{Role: schema.User, MultiContent: parts})
				continue
			}
			out = append(out, &schema.Message{
				Role: schema.User,
				MultiContent: []schema.ChatMessagePart{
					{Type: schema.ChatMessagePartTypeText, Text: msg.Content},
				},
			})
		default:
			return nil, fmt.Errorf("transcript entry %d: unknown role %q", i, msg.Role)
		}
	}

	if !seenSystem {
		out = append([]*schema.Message{schema.SystemMessage(a.systemPrompt)}, out...)
	}
	return out, nil
}

// Send performs one synchronous completion call. Errors are either
// *ai.ProviderError, ai.ErrMalformedResponse or *TransportError.
func (a *Adapter) Send(ctx context.Context, transcript []*models.Message, latest []models.ContentPart) (string, error) {
	messages, err := a.Assemble(transcript, latest)
	if err != nil {
		return "", err
	}
	reply, err := a.model.Generate(ctx, messages)
	if err != nil {
		if errors.Is(err, ai.ErrMalformedResponse) {
			return "", err
		}
		if perr, ok := ai.AsProviderError(err); ok {
			return "", perr
		}
		return "", &TransportError{Err: err}
	}
	if reply == nil {
		return "", ai.ErrMalformedResponse
	}
	return reply.Content, nil
}

func toMessageParts(parts []models.ContentPart) ([]schema.ChatMessagePart, error) {
	out := make([]schema.ChatMessagePart, 0, len(parts))
	for i, part := range parts {
		switch p := part.(type) {
		case models.TextPart:
			out = append(out, schema.ChatMessagePart{Type: schema.ChatMessagePartTypeText, Text: p.Text})
		case models.ImagePart:
			out = append(out, schema.ChatMessagePart{
				Type:     schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{URL: p.URL},
			})
		default:
			return nil, fmt.Errorf("content part %d: unsupported type %T", i, part)
		}
	}
	return out, nil
}
