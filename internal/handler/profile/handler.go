package profile

import (
	"github.com/gin-gonic/gin"

	"github.com/Jawadyyy/healthmate-portal/internal/handler"
	"github.com/Jawadyyy/healthmate-portal/internal/middleware"
	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/internal/service/profile"
	"github.com/Jawadyyy/healthmate-portal/pkg/httputil"
)

type Handler struct {
	svc *profile.Service
}

func NewHandler(svc *profile.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes expects r to sit behind middleware.RequireSession.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctor := r.Group("/doctor/profile", middleware.RequireRole(model.RoleDoctor))
	{
		doctor.GET("", h.GetDoctor)
		doctor.POST("", h.CreateDoctor)
		doctor.PUT("", h.UpdateDoctor)
	}

	patient := r.Group("/patient/profile", middleware.RequireRole(model.RolePatient))
	{
		patient.GET("", h.GetPatient)
		patient.POST("", h.CreatePatient)
		patient.PUT("", h.UpdatePatient)
	}
}

func (h *Handler) GetDoctor(c *gin.Context) {
	p, err := h.svc.GetDoctor(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.DoctorProfile
	if !handler.Bind(c, &req) {
		return
	}

	p, err := h.svc.CreateDoctor(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, p)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	var req model.DoctorProfile
	if !handler.Bind(c, &req) {
		return
	}

	p, err := h.svc.UpdateDoctor(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) GetPatient(c *gin.Context) {
	p, err := h.svc.GetPatient(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.PatientProfile
	if !handler.Bind(c, &req) {
		return
	}

	p, err := h.svc.CreatePatient(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, p)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	var req model.PatientProfile
	if !handler.Bind(c, &req) {
		return
	}

	p, err := h.svc.UpdatePatient(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}
