// Package handler exposes the channel webhooks that drive the dispatcher.
package handler

import (
	"errors"
	"net/http"

	convrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/conversations/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/dispatcher/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/dispatcher/transport"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/config"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/httpkit"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/sanitize"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/validator"

	"github.com/gin-gonic/gin"
)

const notConfiguredMessage = "This number is not set up to take messages yet. Please try again later."

type Handler struct {
	orchestrator *service.Orchestrator
	val          *validator.Validator
	cfg          config.DispatcherConfig
	log          *logger.Logger
}

func New(orchestrator *service.Orchestrator, val *validator.Validator, cfg config.DispatcherConfig, log *logger.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, val: val, cfg: cfg, log: log}
}

// Voice handles the provider's voice webhook. The first turn of a call has
// no SpeechResult and gets the tenant greeting.
func (h *Handler) Voice(c *gin.Context) {
	var form transport.VoiceWebhookForm
	if err := c.ShouldBind(&form); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid webhook payload", nil)
		return
	}
	if err := h.val.Struct(form); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid webhook payload", nil)
		return
	}

	reply, err := h.orchestrator.HandleInbound(c.Request.Context(), service.InboundEvent{
		Channel:     convrepo.ChannelVoice,
		From:        form.From,
		To:          form.To,
		Text:        sanitize.Text(form.SpeechResult),
		ProviderRef: form.CallSid,
	})
	if errors.Is(err, service.ErrTenantNotFound) {
		h.renderVoice(c, service.Reply{Text: notConfiguredMessage, EndCall: true})
		return
	}
	if err != nil {
		h.log.Error("voice turn failed", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	h.renderVoice(c, reply)
}

// SMS handles the provider's SMS webhook.
func (h *Handler) SMS(c *gin.Context) {
	var form transport.SMSWebhookForm
	if err := c.ShouldBind(&form); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid webhook payload", nil)
		return
	}
	if err := h.val.Struct(form); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid webhook payload", nil)
		return
	}

	reply, err := h.orchestrator.HandleInbound(c.Request.Context(), service.InboundEvent{
		Channel:     convrepo.ChannelSMS,
		From:        form.From,
		To:          form.To,
		Text:        sanitize.Text(form.Body),
		ProviderRef: form.MessageSid,
	})
	if errors.Is(err, service.ErrTenantNotFound) {
		h.renderSMS(c, notConfiguredMessage)
		return
	}
	if err != nil {
		h.log.Error("sms turn failed", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	h.renderSMS(c, reply.Text)
}

func (h *Handler) renderVoice(c *gin.Context, reply service.Reply) {
	body, err := transport.RenderVoice(reply.Text, h.cfg.GetVoiceWebhookPath(), reply.EndCall)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpkit.XML(c, http.StatusOK, body)
}

func (h *Handler) renderSMS(c *gin.Context, text string) {
	body, err := transport.RenderSMS(text)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	httpkit.XML(c, http.StatusOK, body)
}
