package appointment

import (
	"github.com/gin-gonic/gin"

	"github.com/Jawadyyy/healthmate-portal/internal/handler"
	"github.com/Jawadyyy/healthmate-portal/internal/middleware"
	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/internal/service/appointment"
	"github.com/Jawadyyy/healthmate-portal/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects r to sit behind middleware.RequireSession.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appts := r.Group("/appointments", middleware.RequireRole(model.RoleDoctor, model.RolePatient))
	{
		appts.GET("", h.ListAppointments)
		appts.GET("/:id", h.GetAppointment)
		appts.POST("", middleware.RequireRole(model.RolePatient), h.BookAppointment)
		appts.PATCH("/:id/status", middleware.RequireRole(model.RoleDoctor), h.UpdateStatus)
		appts.POST("/:id/cancel", h.CancelAppointment)
	}
}

func (h *Handler) ListAppointments(c *gin.Context) {
	sess, ok := handler.Session(c)
	if !ok {
		return
	}

	var q model.AppointmentQuery
	if !handler.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), sess.Role, q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	appt, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.BookAppointmentRequest
	if !handler.Bind(c, &req) {
		return
	}

	appt, err := h.service.Book(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, appt)
}

// UpdateStatus answers with the refreshed list so the page can redraw.
func (h *Handler) UpdateStatus(c *gin.Context) {
	sess, ok := handler.Session(c)
	if !ok {
		return
	}

	var req model.StatusUpdateRequest
	if !handler.Bind(c, &req) {
		return
	}

	appts, err := h.service.UpdateStatus(c.Request.Context(), sess.Role, c.Param("id"), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	sess, ok := handler.Session(c)
	if !ok {
		return
	}

	var req model.CancelRequest
	if !handler.Bind(c, &req) {
		return
	}

	appts, err := h.service.Cancel(c.Request.Context(), sess.Role, c.Param("id"), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}
