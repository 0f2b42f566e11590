// Package render converts engine answers into platform response
// envelopes. Every function here is total: any failure shape degrades to
// the fixed fallback text so a broken input still produces a
// user-visible message.
package render

import (
	"strings"

	"github.com/talkbridgehq/talkbridge/internal/engine"
	"github.com/talkbridgehq/talkbridge/internal/platform"
)

const diagnosticMaxChars = 80

// Envelope is the skill-platform response object. Immutable once built.
type Envelope struct {
	Version  string   `json:"version"`
	Template Template `json:"template"`
}

type Template struct {
	Outputs []Output `json:"outputs"`
}

type Output struct {
	SimpleText  *SimpleText  `json:"simpleText,omitempty"`
	SimpleImage *SimpleImage `json:"simpleImage,omitempty"`
}

type SimpleText struct {
	Text string `json:"text"`
}

type SimpleImage struct {
	ImageURL string `json:"imageUrl"`
	AltText  string `json:"altText"`
}

// Ack is the immediate acknowledgment returned inside the platform's
// response-timeout window, before the engine call starts.
type Ack struct {
	Version     string   `json:"version"`
	UseCallback bool     `json:"useCallback"`
	Data        *AckData `json:"data,omitempty"`
}

type AckData struct {
	Text string `json:"text"`
}

// NewAck builds the acknowledgment envelope for a skill variant.
func NewAck(desc platform.Descriptor) Ack {
	ack := Ack{Version: platform.EnvelopeVersion, UseCallback: true}
	if desc.AckText != "" {
		ack.Data = &AckData{Text: desc.AckText}
	}
	return ack
}

// Render maps an engine answer onto the platform envelope. Deterministic:
// the same answer always yields the same envelope. utterance becomes the
// alt text of image blocks.
func Render(answer engine.Answer, utterance string) Envelope {
	switch answer.Kind {
	case engine.AnswerText:
		if len(answer.Messages) == 0 {
			return textEnvelope(platform.FallbackText)
		}
		return textEnvelope(answer.Messages[0])
	case engine.AnswerImage:
		outputs := make([]Output, 0, 2)
		// Companion description is ordered before the image block.
		if strings.TrimSpace(answer.Description) != "" {
			outputs = append(outputs, Output{SimpleText: &SimpleText{Text: answer.Description}})
		}
		outputs = append(outputs, Output{SimpleImage: &SimpleImage{
			ImageURL: answer.ImageURL,
			AltText:  utterance,
		}})
		return Envelope{
			Version:  platform.EnvelopeVersion,
			Template: Template{Outputs: outputs},
		}
	default:
		return textEnvelope(fallbackText(answer))
	}
}

// PlainText is the mention-path projection of an answer: a single text to
// send inline into the conversation.
func PlainText(answer engine.Answer) string {
	switch answer.Kind {
	case engine.AnswerText:
		if len(answer.Messages) == 0 {
			return platform.FallbackText
		}
		return answer.Messages[0]
	case engine.AnswerImage:
		if strings.TrimSpace(answer.Description) != "" {
			return answer.Description + "\n" + answer.ImageURL
		}
		return answer.ImageURL
	default:
		return fallbackText(answer)
	}
}

func textEnvelope(text string) Envelope {
	return Envelope{
		Version: platform.EnvelopeVersion,
		Template: Template{
			Outputs: []Output{{SimpleText: &SimpleText{Text: text}}},
		},
	}
}

// fallbackText appends a short diagnostic fragment when the failure
// carried an engine-supplied message. Transport failures never carry one.
func fallbackText(answer engine.Answer) string {
	msg := strings.TrimSpace(answer.ErrMessage)
	if msg == "" {
		return platform.FallbackText
	}
	if len(msg) > diagnosticMaxChars {
		msg = msg[:diagnosticMaxChars]
	}
	return platform.FallbackText + " (" + msg + ")"
}
