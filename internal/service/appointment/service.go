package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/pkg/apiclient"
	apperrors "github.com/Jawadyyy/healthmate-portal/pkg/errors"
	"github.com/Jawadyyy/healthmate-portal/pkg/logger"
	"github.com/Jawadyyy/healthmate-portal/pkg/metrics"
	"github.com/Jawadyyy/healthmate-portal/pkg/validator"
)

const defaultDuration = 30

var bookingMessages = validator.Messages{
	"BookAppointmentRequest.DoctorID.required":        "Select a doctor",
	"BookAppointmentRequest.AppointmentDate.required": "Select a date and time",
	"BookAppointmentRequest.Type.required":            "Select an appointment type",
	"BookAppointmentRequest.Type.oneof":               "Appointment type must be in-person, video or phone",
	"BookAppointmentRequest.Duration.gte":             "Duration must be between 15 and 240 minutes",
	"BookAppointmentRequest.Duration.lte":             "Duration must be between 15 and 240 minutes",
	"BookAppointmentRequest.Reason.required":          "Reason for visit is required",
	"StatusUpdateRequest.Status.required":             "Status is required",
	"StatusUpdateRequest.Status.oneof":                "Status can only be changed to completed or cancelled",
}

// Service runs the appointment list, detail, booking and status flows.
type Service struct {
	api       *apiclient.Client
	validator validator.Validator
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

func NewService(api *apiclient.Client, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		api:       api,
		validator: validator.New(validator.WithMessages(bookingMessages)),
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// ListResult is one page of the appointment list.
type ListResult struct {
	Appointments []model.Appointment    `json:"appointments"`
	Stats        model.AppointmentStats `json:"stats"`
}

func listPath(role model.Role) (string, error) {
	switch role {
	case model.RoleDoctor:
		return "/appointments/doctor/me", nil
	case model.RolePatient:
		return "/appointments/patient/me", nil
	}
	return "", apperrors.Forbidden("Appointments are only available to doctors and patients")
}

func (s *Service) fetchAll(ctx context.Context, role model.Role) ([]model.Appointment, error) {
	path, err := listPath(role)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := s.api.Get(ctx, path, &raw); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to list appointments: %w", err))
	}
	var appts []model.Appointment
	if err := apiclient.DecodeList(raw, &appts, "appointments"); err != nil {
		return nil, apperrors.Internal(err)
	}
	return appts, nil
}

// List fetches the caller's appointments and applies q. Stats always cover
// the unfiltered list.
func (s *Service) List(ctx context.Context, role model.Role, q model.AppointmentQuery) (*ListResult, error) {
	if !ValidFilter(q.Filter) {
		return nil, apperrors.Validation(fmt.Sprintf("Unknown filter %q", q.Filter))
	}

	appts, err := s.fetchAll(ctx, role)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &ListResult{
		Appointments: Filter(appts, q, now),
		Stats:        Stats(appts, now),
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Appointment, error) {
	var appt model.Appointment
	if err := s.api.Get(ctx, "/appointments/"+url.PathEscape(id), &appt); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to get appointment: %w", err))
	}
	return &appt, nil
}

type bookPayload struct {
	DoctorID        string                `json:"doctorId"`
	AppointmentDate string                `json:"appointmentDate"`
	Type            model.AppointmentType `json:"type"`
	Duration        int                   `json:"duration"`
	Reason          string                `json:"reason"`
	Notes           string                `json:"notes,omitempty"`
}

// Book creates an appointment for the calling patient.
func (s *Service) Book(ctx context.Context, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	when, err := model.ParseFlexTime(req.AppointmentDate)
	if err != nil {
		return nil, apperrors.Validation("Appointment date is invalid")
	}
	if when.Before(s.now()) {
		return nil, apperrors.Validation("Appointment date cannot be in the past")
	}

	duration := req.Duration
	if duration == 0 {
		duration = defaultDuration
	}

	payload := bookPayload{
		DoctorID:        req.DoctorID,
		AppointmentDate: when.Format(time.RFC3339),
		Type:            req.Type,
		Duration:        duration,
		Reason:          strings.TrimSpace(req.Reason),
		Notes:           strings.TrimSpace(req.Notes),
	}

	var appt model.Appointment
	if err := s.api.Post(ctx, "/appointments", payload, &appt); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to book appointment: %w", err))
	}
	return &appt, nil
}

// UpdateStatus moves an active appointment to completed or cancelled and
// returns the refreshed list.
func (s *Service) UpdateStatus(ctx context.Context, role model.Role, id string, req *model.StatusUpdateRequest) ([]model.Appointment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Status == model.AppointmentStatusCancelled && !req.Confirm {
		return nil, apperrors.Validation("Please confirm the cancellation")
	}

	if err := s.checkTransition(ctx, id, req.Status); err != nil {
		return nil, err
	}
	if err := s.patchStatus(ctx, id, req.Status); err != nil {
		return nil, err
	}
	return s.fetchAll(ctx, role)
}

// Cancel tries the dedicated cancel endpoint before the generic status paths.
func (s *Service) Cancel(ctx context.Context, role model.Role, id string, req *model.CancelRequest) ([]model.Appointment, error) {
	if !req.Confirm {
		return nil, apperrors.Validation("Please confirm the cancellation")
	}
	if err := s.checkTransition(ctx, id, model.AppointmentStatusCancelled); err != nil {
		return nil, err
	}

	body := map[string]string{}
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		body["reason"] = reason
	}

	err := s.api.Patch(ctx, "/appointments/"+url.PathEscape(id)+"/cancel", body, nil)
	if err != nil {
		if !canFallBack(err) {
			return nil, apperrors.FromAPI(fmt.Errorf("failed to cancel appointment: %w", err))
		}
		s.fellBack("appointment_cancel", id, err)
		if err := s.patchStatus(ctx, id, model.AppointmentStatusCancelled); err != nil {
			return nil, err
		}
	}
	return s.fetchAll(ctx, role)
}

func (s *Service) checkTransition(ctx context.Context, id string, next model.AppointmentStatus) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(next) {
		return apperrors.Validation(fmt.Sprintf("A %s appointment cannot be marked as %s", current.Status, next))
	}
	return nil
}

// patchStatus tries PATCH /appointments/{id}/status and falls back to
// PATCH /appointments/{id} for backends that only expose the generic route.
func (s *Service) patchStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	base := "/appointments/" + url.PathEscape(id)
	body := map[string]model.AppointmentStatus{"status": status}

	err := s.api.Patch(ctx, base+"/status", body, nil)
	if err == nil {
		return nil
	}
	if !canFallBack(err) {
		return apperrors.FromAPI(fmt.Errorf("failed to update appointment status: %w", err))
	}

	s.fellBack("appointment_status", id, err)
	if err := s.api.Patch(ctx, base, body, nil); err != nil {
		return apperrors.FromAPI(fmt.Errorf("failed to update appointment status: %w", err))
	}
	return nil
}

// canFallBack is true only for business errors. Auth, rate limit and network
// failures would fail the same way on the alternate route.
func canFallBack(err error) bool {
	apiErr, ok := apiclient.AsError(err)
	return ok && apiErr.Kind == apiclient.KindServer
}

func (s *Service) fellBack(op, id string, err error) {
	s.log.Warn("primary endpoint failed, using fallback", "operation", op, "appointment_id", id, "error", err.Error())
	if s.metrics != nil {
		s.metrics.UpstreamFallback.WithLabelValues(op).Inc()
	}
}
