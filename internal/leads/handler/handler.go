package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/transport"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/httpkit"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/phone"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/sanitize"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) List(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant", nil)
		return
	}

	filter := repository.ListFilter{
		Status: c.Query("status"),
		Source: c.Query("source"),
	}
	if v := c.Query("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := c.Query("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	leads, err := h.svc.List(c.Request.Context(), tenantID, filter)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, transport.FromLead(lead))
	}
	httpkit.OK(c, gin.H{"leads": out})
}

func (h *Handler) Get(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromLead(lead))
}

func (h *Handler) Create(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant", nil)
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	if !phone.IsValid(req.CustomerPhone) {
		httpkit.Error(c, http.StatusBadRequest, "invalid customer phone", nil)
		return
	}

	newLead := repository.NewLead{
		TenantID:            tenantID,
		CustomerName:        sanitize.Text(req.CustomerName),
		CustomerPhone:       phone.NormalizeE164(req.CustomerPhone),
		CustomerEmail:       req.CustomerEmail,
		JobCategory:         sanitize.Text(req.JobCategory),
		Address:             sanitize.Text(req.Address),
		Urgency:             req.Urgency,
		Notes:               sanitize.Text(req.Notes),
		EstimatedValueCents: req.EstimatedValueCents,
	}
	if newLead.Urgency == "" {
		newLead.Urgency = "Flexible"
	}
	if req.PreferredDate != nil {
		d, err := time.Parse("2006-01-02", *req.PreferredDate)
		if err == nil {
			newLead.PreferredDate = &d
		}
	}

	lead, err := h.svc.CreateManual(c.Request.Context(), newLead)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.FromLead(lead))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	lead, err := h.svc.TransitionStatus(c.Request.Context(), tenantID, id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromLead(lead))
}
