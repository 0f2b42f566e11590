package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/talkbridgehq/talkbridge/internal/bridge"
	"github.com/talkbridgehq/talkbridge/internal/callback"
	"github.com/talkbridgehq/talkbridge/internal/engine"
	"github.com/talkbridgehq/talkbridge/internal/platform"
	"github.com/talkbridgehq/talkbridge/internal/render"
)

type stubGateway struct {
	calls  chan string
	answer engine.Answer
}

func newStubGateway(answer engine.Answer) *stubGateway {
	return &stubGateway{calls: make(chan string, 1), answer: answer}
}

func (g *stubGateway) Ask(_ context.Context, _, _ string, utterance string) engine.Answer {
	g.calls <- utterance
	return g.answer
}

func (g *stubGateway) AskForImage(_ context.Context, _, _ string, utterance string) engine.Answer {
	g.calls <- utterance
	return g.answer
}

type stubDeliverer struct {
	delivered chan render.Envelope
	urls      chan string
}

func newStubDeliverer() *stubDeliverer {
	return &stubDeliverer{delivered: make(chan render.Envelope, 1), urls: make(chan string, 1)}
}

func (d *stubDeliverer) Deliver(_ context.Context, callbackURL string, envelope render.Envelope) callback.Outcome {
	d.urls <- callbackURL
	d.delivered <- envelope
	return callback.CallbackSent
}

func newTestServer(gateway bridge.Gateway, deliverer bridge.Deliverer) *echo.Echo {
	e := echo.New()
	orchestrator := bridge.New(nil, gateway, deliverer)
	NewSkillHandler(nil, orchestrator).Register(e)
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSkillHandlerChannelAck(t *testing.T) {
	t.Parallel()

	gateway := newStubGateway(engine.Answer{Kind: engine.AnswerText, Messages: []string{"hi there"}})
	deliverer := newStubDeliverer()
	e := newTestServer(gateway, deliverer)

	body := `{"userRequest":{"utterance":"hello","user":{"id":"u1","type":"botUserKey"},"callbackUrl":"https://cb.example/hook"},"bot":{"id":"bot-1"}}`
	rec := postJSON(e, "/channel/message", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var ack render.Ack
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Version != platform.EnvelopeVersion || !ack.UseCallback {
		t.Fatalf("unexpected ack: %#v", ack)
	}
	if ack.Data != nil {
		t.Fatal("channel ack must carry no data block")
	}

	select {
	case url := <-deliverer.urls:
		if url != "https://cb.example/hook" {
			t.Fatalf("unexpected callback url: %s", url)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback delivery")
	}
	env := <-deliverer.delivered
	if env.Template.Outputs[0].SimpleText.Text != "hi there" {
		t.Fatalf("unexpected envelope: %#v", env.Template.Outputs)
	}
}

func TestSkillHandlerGroupAckCarriesWaitText(t *testing.T) {
	t.Parallel()

	gateway := newStubGateway(engine.Answer{Kind: engine.AnswerImage, ImageURL: "https://img.example/a.png"})
	deliverer := newStubDeliverer()
	e := newTestServer(gateway, deliverer)

	body := `{"userRequest":{"utterance":"draw a cat","user":{"id":"u1"}}}`
	rec := postJSON(e, "/group/message", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var ack render.Ack
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Data == nil || ack.Data.Text != platform.WaitText {
		t.Fatalf("group ack must carry the wait text, got %#v", ack.Data)
	}

	select {
	case <-deliverer.delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback delivery")
	}
}

func TestSkillHandlerRejectsMissingUtterance(t *testing.T) {
	t.Parallel()

	gateway := newStubGateway(engine.Answer{Kind: engine.AnswerText, Messages: []string{"x"}})
	e := newTestServer(gateway, newStubDeliverer())

	for _, body := range []string{
		`{}`,
		`{"userRequest":{}}`,
		`{"userRequest":{"utterance":"   "}}`,
	} {
		rec := postJSON(e, "/channel/message", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rec.Code)
		}
	}

	select {
	case got := <-gateway.calls:
		t.Fatalf("rejected requests must not reach the engine, got %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSkillHandlerRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	e := newTestServer(newStubGateway(engine.Answer{}), newStubDeliverer())
	rec := postJSON(e, "/channel/message", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSkillHandlerUserProperties(t *testing.T) {
	t.Parallel()

	desc := platform.Descriptor{Variant: platform.SkillChannel}
	payload := skillRequest{
		UserRequest: skillUserRequest{
			Utterance: "hello",
			User: &skillUser{
				ID:   "u1",
				Type: "botUserKey",
				Properties: map[string]string{
					"nickname": "Alice",
					"username": "alice99",
				},
			},
			CallbackURL: "https://cb.example/hook",
		},
		Bot: &skillBot{ID: "bot-1"},
	}

	req := buildBridgeRequest(desc, payload)
	if req.ConversationID != "bot-1" {
		t.Fatalf("unexpected conversation id: %s", req.ConversationID)
	}
	if req.DisplayName != "Alice" || req.Username != "alice99" {
		t.Fatalf("unexpected names: %s / %s", req.DisplayName, req.Username)
	}
	if req.UserType != "botUserKey" {
		t.Fatalf("unexpected user type: %s", req.UserType)
	}
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	e := echo.New()
	NewHealthHandler(nil).Register(e)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %#v", body)
	}
}
