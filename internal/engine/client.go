package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	messagesPath = "/messages"
	imagePath    = "/image"
)

// Client is the authenticated gateway to the upstream conversational
// engine. Initialized once at process start and safe for concurrent use
// by any number of in-flight requests; the only mutable state is the
// token lifecycle, owned by the TokenSource.
type Client struct {
	baseURL string
	tokens  oauth2.TokenSource
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds the shared engine client. tokens may be nil when the
// engine is reachable without credentials.
func NewClient(log *slog.Logger, baseURL string, tokens oauth2.TokenSource, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("engine base url is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		http:    &http.Client{Timeout: timeout},
		logger:  log.With(slog.String("component", "engine")),
	}, nil
}

type messagesRequest struct {
	Messages    []string `json:"messages"`
	SessionID   string   `json:"session_id"`
	SpeakerName string   `json:"speaker_name,omitempty"`
}

type messagesResponse struct {
	Messages []string `json:"messages"`
}

// Ask sends one utterance to the engine's text endpoint. Single attempt,
// no retry; every failure path comes back as a tagged Answer, never as an
// error.
func (c *Client) Ask(ctx context.Context, sessionKey, speakerName, utterance string) Answer {
	payload := messagesRequest{
		Messages:    []string{utterance},
		SessionID:   sessionKey,
		SpeakerName: speakerName,
	}
	raw, err := c.post(ctx, messagesPath, payload)
	if err != nil {
		c.logger.Error("ask failed", slog.String("session", sessionKey), slog.Any("error", err))
		return Answer{Kind: AnswerTransportFailure}
	}
	var parsed messagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.logger.Error("ask response parse failed", slog.String("session", sessionKey), slog.Any("error", err))
		return Answer{Kind: AnswerTransportFailure}
	}
	if len(parsed.Messages) == 0 {
		c.logger.Warn("ask returned no messages", slog.String("session", sessionKey))
		return Answer{Kind: AnswerFailure}
	}
	return Answer{Kind: AnswerText, Messages: parsed.Messages}
}

type imageRequest struct {
	Prompt    string `json:"prompt"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

type imageResponse struct {
	Success         bool   `json:"success"`
	ImageURL        string `json:"image_url"`
	ImageData       string `json:"image_data"`
	ResponseMessage string `json:"response_message"`
	Error           string `json:"error"`
}

// AskForImage sends one utterance to the engine's image endpoint.
// Failure semantics match Ask; a structured engine failure carries the
// engine's error text as the diagnostic.
func (c *Client) AskForImage(ctx context.Context, userID, sessionID, utterance string) Answer {
	payload := imageRequest{
		Prompt:    utterance,
		UserID:    userID,
		SessionID: sessionID,
	}
	raw, err := c.post(ctx, imagePath, payload)
	if err != nil {
		c.logger.Error("ask image failed", slog.String("session", sessionID), slog.Any("error", err))
		return Answer{Kind: AnswerTransportFailure}
	}
	var parsed imageResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.logger.Error("ask image response parse failed", slog.String("session", sessionID), slog.Any("error", err))
		return Answer{Kind: AnswerTransportFailure}
	}
	if !parsed.Success {
		c.logger.Warn("engine reported image failure", slog.String("session", sessionID), slog.String("engine_error", parsed.Error))
		return Answer{Kind: AnswerFailure, ErrMessage: strings.TrimSpace(parsed.Error)}
	}
	imageURL := strings.TrimSpace(parsed.ImageURL)
	if imageURL == "" {
		imageURL = strings.TrimSpace(parsed.ImageData)
	}
	if imageURL == "" {
		c.logger.Warn("engine image response has no image", slog.String("session", sessionID))
		return Answer{Kind: AnswerFailure, ErrMessage: strings.TrimSpace(parsed.ResponseMessage)}
	}
	return Answer{
		Kind:        AnswerImage,
		ImageURL:    imageURL,
		Description: strings.TrimSpace(parsed.ResponseMessage),
	}
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("engine token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("engine error: status %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(respBody)), 300))
	}
	return respBody, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
