package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/talkbridgehq/talkbridge/internal/bridge"
	"github.com/talkbridgehq/talkbridge/internal/callback"
	"github.com/talkbridgehq/talkbridge/internal/platform"
	"github.com/talkbridgehq/talkbridge/internal/render"
)

// skillRequest is the inbound webhook body shared by both skill-platform
// variants.
type skillRequest struct {
	UserRequest skillUserRequest `json:"userRequest" validate:"required"`
	Bot         *skillBot        `json:"bot"`
}

type skillUserRequest struct {
	Utterance   string     `json:"utterance" validate:"required"`
	User        *skillUser `json:"user"`
	CallbackURL string     `json:"callbackUrl"`
}

type skillUser struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

type skillBot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SkillHandler serves the skill-platform webhook routes. One handler
// covers every variant; the differences live in the platform descriptor
// table.
type SkillHandler struct {
	logger   *slog.Logger
	bridge   *bridge.Orchestrator
	validate *validator.Validate
}

func NewSkillHandler(log *slog.Logger, orchestrator *bridge.Orchestrator) *SkillHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SkillHandler{
		logger:   log.With(slog.String("handler", "skill")),
		bridge:   orchestrator,
		validate: validator.New(),
	}
}

func (h *SkillHandler) Register(e *echo.Echo) {
	for _, desc := range platform.Descriptors() {
		e.POST(desc.MessagePath, h.handleMessage(desc))
	}
}

// handleMessage accepts one skill-platform request: validate, write the
// acknowledgment inside the platform's response window, then hand the
// rest to a detached background task.
func (h *SkillHandler) handleMessage(desc platform.Descriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		var payload skillRequest
		if err := c.Bind(&payload); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		}
		if err := h.validate.Struct(payload); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "utterance is required"})
		}

		req := buildBridgeRequest(desc, payload)
		if err := h.bridge.Validate(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		// AckSent: the response must reach the caller before the engine
		// call starts, so write it now and spawn afterwards.
		if err := c.JSON(http.StatusOK, render.NewAck(desc)); err != nil {
			return err
		}
		h.logger.Info("request acknowledged",
			slog.String("platform", desc.Variant.String()),
			slog.String("outcome", string(callback.AcknowledgedPendingCallback)),
			slog.Bool("has_callback", strings.TrimSpace(req.CallbackURL) != ""),
		)

		h.bridge.DispatchAsync(context.WithoutCancel(c.Request().Context()), desc, req)
		return nil
	}
}

func buildBridgeRequest(desc platform.Descriptor, payload skillRequest) bridge.Request {
	req := bridge.Request{
		Platform:    desc.Variant,
		Utterance:   payload.UserRequest.Utterance,
		CallbackURL: payload.UserRequest.CallbackURL,
	}
	if payload.Bot != nil {
		req.ConversationID = payload.Bot.ID
	}
	if user := payload.UserRequest.User; user != nil {
		req.UserID = user.ID
		req.UserType = user.Type
		if user.Properties != nil {
			req.DisplayName = user.Properties["nickname"]
			req.Username = user.Properties["username"]
		}
	}
	return req
}
