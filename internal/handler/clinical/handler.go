package clinical

import (
	"github.com/gin-gonic/gin"

	"github.com/Jawadyyy/healthmate-portal/internal/handler"
	"github.com/Jawadyyy/healthmate-portal/internal/middleware"
	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/internal/service/clinical"
	"github.com/Jawadyyy/healthmate-portal/pkg/httputil"
)

type Handler struct {
	svc *clinical.Service
}

func NewHandler(svc *clinical.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes expects r to sit behind middleware.RequireSession.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctorOnly := middleware.RequireRole(model.RoleDoctor)

	r.GET("/patients", doctorOnly, h.ListPatients)
	r.POST("/prescriptions", doctorOnly, h.CreatePrescription)

	records := r.Group("/records", middleware.RequireRole(model.RoleDoctor, model.RolePatient))
	{
		records.GET("", h.ListRecords)
		records.POST("", doctorOnly, h.CreateRecord)
		records.GET("/:id", h.GetRecord)
		records.PATCH("/:id", doctorOnly, h.UpdateRecord)
	}
}

func (h *Handler) ListPatients(c *gin.Context) {
	patients, err := h.svc.Patients(c.Request.Context(), c.Query("search"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) CreatePrescription(c *gin.Context) {
	var req model.PrescriptionRequest
	if !handler.Bind(c, &req) {
		return
	}

	rx, err := h.svc.CreatePrescription(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, rx)
}

func (h *Handler) ListRecords(c *gin.Context) {
	sess, ok := handler.Session(c)
	if !ok {
		return
	}

	recs, err := h.svc.ListRecords(c.Request.Context(), sess.Role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	handler.RespondList(c, recs)
}

func (h *Handler) CreateRecord(c *gin.Context) {
	var req model.MedicalRecordRequest
	if !handler.Bind(c, &req) {
		return
	}

	rec, err := h.svc.CreateRecord(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, rec)
}

func (h *Handler) GetRecord(c *gin.Context) {
	rec, err := h.svc.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, rec)
}

func (h *Handler) UpdateRecord(c *gin.Context) {
	var req model.MedicalRecordRequest
	if !handler.Bind(c, &req) {
		return
	}

	rec, err := h.svc.UpdateRecord(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, rec)
}
