package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/talkbridgehq/talkbridge/internal/engine"
	"github.com/talkbridgehq/talkbridge/internal/platform"
)

func TestRenderText(t *testing.T) {
	t.Parallel()

	env := Render(engine.Answer{Kind: engine.AnswerText, Messages: []string{"hello", "ignored"}}, "hi")
	if env.Version != platform.EnvelopeVersion {
		t.Fatalf("unexpected version: %s", env.Version)
	}
	if len(env.Template.Outputs) != 1 {
		t.Fatalf("expected one output, got %d", len(env.Template.Outputs))
	}
	out := env.Template.Outputs[0]
	if out.SimpleText == nil || out.SimpleText.Text != "hello" {
		t.Fatalf("expected verbatim first message, got %#v", out)
	}
}

func TestRenderTextEmptyMessages(t *testing.T) {
	t.Parallel()

	env := Render(engine.Answer{Kind: engine.AnswerText}, "hi")
	if env.Template.Outputs[0].SimpleText.Text != platform.FallbackText {
		t.Fatalf("empty answer must degrade to fallback, got %q", env.Template.Outputs[0].SimpleText.Text)
	}
}

func TestRenderImage(t *testing.T) {
	t.Parallel()

	answer := engine.Answer{
		Kind:        engine.AnswerImage,
		ImageURL:    "https://img.example/cat.png",
		Description: "here is your cat",
	}
	env := Render(answer, "draw a cat")
	if len(env.Template.Outputs) != 2 {
		t.Fatalf("expected description and image outputs, got %d", len(env.Template.Outputs))
	}
	if env.Template.Outputs[0].SimpleText == nil || env.Template.Outputs[0].SimpleText.Text != "here is your cat" {
		t.Fatalf("description must come first, got %#v", env.Template.Outputs[0])
	}
	img := env.Template.Outputs[1].SimpleImage
	if img == nil {
		t.Fatal("missing image output")
	}
	if img.ImageURL != "https://img.example/cat.png" {
		t.Fatalf("unexpected image url: %s", img.ImageURL)
	}
	if img.AltText != "draw a cat" {
		t.Fatalf("alt text must be the utterance, got %q", img.AltText)
	}
}

func TestRenderImageWithoutDescription(t *testing.T) {
	t.Parallel()

	env := Render(engine.Answer{Kind: engine.AnswerImage, ImageURL: "https://img.example/x.png"}, "x")
	if len(env.Template.Outputs) != 1 {
		t.Fatalf("expected single image output, got %d", len(env.Template.Outputs))
	}
	if env.Template.Outputs[0].SimpleImage == nil {
		t.Fatal("missing image output")
	}
}

func TestRenderTransportFailureUsesExactFallback(t *testing.T) {
	t.Parallel()

	env := Render(engine.Answer{Kind: engine.AnswerTransportFailure}, "hi")
	got := env.Template.Outputs[0].SimpleText.Text
	if got != platform.FallbackText {
		t.Fatalf("transport failure must render the fallback verbatim, got %q", got)
	}
}

func TestRenderEngineFailureAppendsDiagnostic(t *testing.T) {
	t.Parallel()

	env := Render(engine.Answer{Kind: engine.AnswerFailure, ErrMessage: "quota exceeded"}, "hi")
	got := env.Template.Outputs[0].SimpleText.Text
	want := platform.FallbackText + " (quota exceeded)"
	if got != want {
		t.Fatalf("unexpected fallback: %q", got)
	}
}

func TestRenderDiagnosticTruncated(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 500)
	env := Render(engine.Answer{Kind: engine.AnswerFailure, ErrMessage: long}, "hi")
	got := env.Template.Outputs[0].SimpleText.Text
	want := platform.FallbackText + " (" + strings.Repeat("x", 80) + ")"
	if got != want {
		t.Fatalf("diagnostic must be truncated, got %d chars", len(got))
	}
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	answer := engine.Answer{Kind: engine.AnswerImage, ImageURL: "https://img.example/a.png", Description: "a"}
	first, err := json.Marshal(Render(answer, "draw"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(Render(answer, "draw"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("same answer must render identically:\n%s\n%s", first, second)
	}
}

func TestNewAck(t *testing.T) {
	t.Parallel()

	t.Run("channel", func(t *testing.T) {
		t.Parallel()
		ack := NewAck(platform.Descriptor{Variant: platform.SkillChannel})
		if ack.Version != platform.EnvelopeVersion || !ack.UseCallback {
			t.Fatalf("unexpected ack: %#v", ack)
		}
		if ack.Data != nil {
			t.Fatal("channel ack must carry no data")
		}
	})

	t.Run("group", func(t *testing.T) {
		t.Parallel()
		ack := NewAck(platform.Descriptor{Variant: platform.SkillGroup, AckText: platform.WaitText})
		if ack.Data == nil || ack.Data.Text != platform.WaitText {
			t.Fatalf("group ack must carry the wait text, got %#v", ack.Data)
		}
	})
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		if got := PlainText(engine.Answer{Kind: engine.AnswerText, Messages: []string{"hey"}}); got != "hey" {
			t.Fatalf("unexpected text: %q", got)
		}
	})

	t.Run("image", func(t *testing.T) {
		t.Parallel()
		got := PlainText(engine.Answer{Kind: engine.AnswerImage, ImageURL: "https://img.example/a.png", Description: "done"})
		if got != "done\nhttps://img.example/a.png" {
			t.Fatalf("unexpected text: %q", got)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()
		if got := PlainText(engine.Answer{Kind: engine.AnswerTransportFailure}); got != platform.FallbackText {
			t.Fatalf("unexpected text: %q", got)
		}
	})
}
