package billing

import (
	"github.com/gin-gonic/gin"

	"github.com/Jawadyyy/healthmate-portal/internal/handler"
	"github.com/Jawadyyy/healthmate-portal/internal/middleware"
	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/internal/service/billing"
	"github.com/Jawadyyy/healthmate-portal/pkg/httputil"
)

type Handler struct {
	svc *billing.Service
}

func NewHandler(svc *billing.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes expects r to sit behind middleware.RequireSession.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/earnings", middleware.RequireRole(model.RoleDoctor), h.GetEarnings)

	invoices := r.Group("/invoices", middleware.RequireRole(model.RolePatient))
	{
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.POST("/:id/pay", h.PayInvoice)
	}
}

func (h *Handler) GetEarnings(c *gin.Context) {
	var q model.EarningsQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	earnings, err := h.svc.Earnings(c.Request.Context(), q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, earnings)
}

func (h *Handler) ListInvoices(c *gin.Context) {
	invoices, err := h.svc.Invoices(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	handler.RespondList(c, invoices)
}

func (h *Handler) GetInvoice(c *gin.Context) {
	inv, err := h.svc.Invoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inv)
}

func (h *Handler) PayInvoice(c *gin.Context) {
	var req model.PayInvoiceRequest
	if !handler.Bind(c, &req) {
		return
	}

	inv, err := h.svc.Pay(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inv)
}
