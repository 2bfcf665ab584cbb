package completion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"chatdesk/internal/models"
	"chatdesk/internal/service/ai"
)

type stubModel struct {
	reply *schema.Message
	err   error
	got   []*schema.Message
}

func (s *stubModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.got = input
	return s.reply, s.err
}

func (s *stubModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func transcript(entries ...*models.Message) []*models.Message { return entries }

func msg(role models.Role, content string) *models.Message {
	return &models.Message{Role: role, Content: content}
}

func countSystem(msgs []*schema.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Role == schema.System {
			n++
		}
	}
	return n
}

func TestAssembleSystemExactlyOnce(t *testing.T) {
	a := NewAdapter(&stubModel{}, "configured prompt")
	tr := transcript(
		msg(models.RoleSystem, "seeded prompt"),
		msg(models.RoleUser, "hi"),
		msg(models.RoleAssistant, "hello"),
		msg(models.RoleSystem, "stray second prompt"),
		msg(models.RoleUser, "which crisps are vegan?"),
	)
	out, err := a.Assemble(tr, []models.ContentPart{models.TextPart{Text: "which crisps are vegan?"}})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if countSystem(out) != 1 {
		t.Fatalf("expected exactly one system message, got %d", countSystem(out))
	}
	if out[0].Role != schema.System || out[0].Content != "seeded prompt" {
		t.Fatalf("system message should be first: %#v", out[0])
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(out))
	}
}

func TestAssemblePrependsConfiguredPrompt(t *testing.T) {
	a := NewAdapter(&stubModel{}, "configured prompt")
	out, err := a.Assemble(transcript(msg(models.RoleUser, "hi")), []models.ContentPart{models.TextPart{Text: "hi"}})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(out) != 2 || out[0].Role != schema.System || out[0].Content != "configured prompt" {
		t.Fatalf("expected configured prompt at position 0: %#v", out)
	}
}

func TestAssembleHistoryAndLatestParts(t *testing.T) {
	a := NewAdapter(&stubModel{}, "p")
	tr := transcript(
		msg(models.RoleSystem, "p"),
		msg(models.RoleUser, "what is this?\n(Attached Image: old.png)"),
		msg(models.RoleAssistant, "a bag of crisps"),
		msg(models.RoleUser, "and this?\n(Attached Image: new.png)"),
	)
	latest := []models.ContentPart{
		models.TextPart{Text: "and this?"},
		models.ImagePart{URL: "data:image/png;base64,AAAA"},
	}
	out, err := a.Assemble(tr, latest)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	hist := out[1]
	if len(hist.MultiContent) != 1 || hist.MultiContent[0].Type != schema.ChatMessagePartTypeText ||
		hist.MultiContent[0].Text != "what is this?\n(Attached Image: old.png)" {
		t.Fatalf("historical user turn should be its display text: %#v", hist.MultiContent)
	}
	if out[2].Role != schema.Assistant || out[2].Content != "a bag of crisps" {
		t.Fatalf("unexpected assistant message %#v", out[2])
	}

	cur := out[3]
	if len(cur.MultiContent) != 2 {
		t.Fatalf("expected latest parts to replace display text: %#v", cur.MultiContent)
	}
	if cur.MultiContent[0].Text != "and this?" {
		t.Fatalf("unexpected text part %#v", cur.MultiContent[0])
	}
	img := cur.MultiContent[1]
	if img.Type != schema.ChatMessagePartTypeImageURL || img.ImageURL == nil || img.ImageURL.URL != "data:image/png;base64,AAAA" {
		t.Fatalf("unexpected image part %#v", img)
	}
}

func TestSendReturnsReply(t *testing.T) {
	stub := &stubModel{reply: &schema.Message{Role: schema.Assistant, Content: "yes"}}
	a := NewAdapter(stub, "p")
	reply, err := a.Send(context.Background(), transcript(msg(models.RoleUser, "hi")), []models.ContentPart{models.TextPart{Text: "hi"}})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply != "yes" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if countSystem(stub.got) != 1 {
		t.Fatalf("request must carry the system prompt once")
	}
}

func TestSendErrorTaxonomy(t *testing.T) {
	perr := &ai.ProviderError{StatusCode: 500, Detail: "rate limited"}
	netErr := errors.New("dial tcp: connection refused")
	sdkErr := fmt.Errorf("send message fail: %w", genai.APIError{Code: 429, Message: "quota exhausted"})

	cases := []struct {
		name  string
		stub  *stubModel
		check func(error) bool
	}{
		{"provider", &stubModel{err: perr}, func(err error) bool {
			var got *ai.ProviderError
			return errors.As(err, &got) && got.StatusCode == 500
		}},
		{"driver status", &stubModel{err: sdkErr}, func(err error) bool {
			var got *ai.ProviderError
			var terr *TransportError
			return errors.As(err, &got) && got.StatusCode == 429 && got.Detail == "quota exhausted" && !errors.As(err, &terr)
		}},
		{"malformed", &stubModel{err: ai.ErrMalformedResponse}, func(err error) bool {
			return errors.Is(err, ai.ErrMalformedResponse)
		}},
		{"nil reply", &stubModel{}, func(err error) bool {
			return errors.Is(err, ai.ErrMalformedResponse)
		}},
		{"transport", &stubModel{err: netErr}, func(err error) bool {
			var terr *TransportError
			return errors.As(err, &terr) && errors.Is(err, netErr)
		}},
	}
	for _, tc := range cases {
		a := NewAdapter(tc.stub, "p")
		_, err := a.Send(context.Background(), transcript(msg(models.RoleUser, "hi")), []models.ContentPart{models.TextPart{Text: "hi"}})
		if !tc.check(err) {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}
