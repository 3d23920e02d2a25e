package handler

import (
	"net/http"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/transport"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/httpkit"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/sanitize"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) GetAISettings(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant", nil)
		return
	}

	tenant, err := h.svc.GetAIConfig(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	numbers, err := h.svc.PhoneNumbers(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toResponse(tenant, numbers))
}

func (h *Handler) UpdateAISettings(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant", nil)
		return
	}

	var req transport.AISettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	cfg := repository.AIConfig{
		Greeting:             sanitize.Text(req.Greeting),
		Tone:                 req.Tone,
		Services:             sanitizeAll(req.Services),
		PricingDeflection:    sanitize.Text(req.PricingDeflection),
		EscalationMessage:    sanitize.Text(req.EscalationMessage),
		EscalationKeywords:   sanitizeAll(req.EscalationKeywords),
		BudgetThresholdCents: req.BudgetThresholdCents,
	}
	if err := h.svc.UpdateAIConfig(c.Request.Context(), tenantID, cfg, req.NotifyEmail); httpkit.HandleError(c, err) {
		return
	}

	tenant, err := h.svc.GetAIConfig(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	numbers, err := h.svc.PhoneNumbers(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(tenant, numbers))
}

func toResponse(t repository.Tenant, numbers []string) transport.AISettingsResponse {
	if numbers == nil {
		numbers = []string{}
	}
	return transport.AISettingsResponse{
		Greeting:             t.AI.Greeting,
		Tone:                 t.AI.Tone,
		Services:             t.AI.Services,
		PricingDeflection:    t.AI.PricingDeflection,
		EscalationMessage:    t.AI.EscalationMessage,
		EscalationKeywords:   t.AI.EscalationKeywords,
		BudgetThresholdCents: t.AI.BudgetThresholdCents,
		NotifyEmail:          t.NotifyEmail,
		PhoneNumbers:         numbers,
	}
}

func sanitizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if cleaned := sanitize.Text(v); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
