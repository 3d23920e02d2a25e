package handler

import (
	"net/http"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/plan"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/transport"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc   *service.Service
	store service.SubscriptionStore
}

func New(svc *service.Service, store service.SubscriptionStore) *Handler {
	return &Handler{svc: svc, store: store}
}

func (h *Handler) GetLimit(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant", nil)
		return
	}

	resource := plan.Resource(c.Param("resource"))
	switch resource {
	case plan.ResourceLeads, plan.ResourcePhoneNumbers, plan.ResourceTeamMembers, plan.ResourceIntegrations:
	default:
		httpkit.Error(c, http.StatusBadRequest, "unknown resource", nil)
		return
	}

	decision, err := h.svc.CheckLimit(c.Request.Context(), tenantID, resource)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.LimitResponse{
		Resource: string(resource),
		Allowed:  decision.Allowed,
		Used:     decision.Used,
		Limit:    decision.Limit,
		Reason:   decision.Reason,
	})
}

func (h *Handler) GetSubscription(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant", nil)
		return
	}

	sub, err := h.store.GetByTenant(c.Request.Context(), tenantID)
	if err == repository.ErrNotFound {
		httpkit.Error(c, http.StatusNotFound, "no subscription", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}

	limits := plan.LimitsFor(sub.Plan)
	httpkit.OK(c, transport.SubscriptionResponse{
		Plan:        string(sub.Plan),
		Status:      string(sub.Status),
		LeadsUsed:   sub.LeadsUsed,
		LeadsLimit:  limits.Cap(plan.ResourceLeads),
		PeriodStart: sub.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   sub.PeriodEnd.Format("2006-01-02"),
	})
}
