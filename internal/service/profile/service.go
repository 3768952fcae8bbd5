package profile

import (
	"context"
	"fmt"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
	"github.com/Jawadyyy/healthmate-portal/pkg/apiclient"
	apperrors "github.com/Jawadyyy/healthmate-portal/pkg/errors"
	"github.com/Jawadyyy/healthmate-portal/pkg/validator"
)

const (
	doctorProfilePath   = "/doctors/profile"
	doctorProfileMePath = "/doctors/profile/me"
	patientProfilePath  = "/patients/profile"
	patientProfileMe    = "/patients/profile/me"
)

var profileMessages = validator.Messages{
	"DoctorProfile.Specialization.required": "Specialization is required",
	"DoctorProfile.Qualification.required":  "Qualification is required",
	"DoctorProfile.Phone.required":          "Phone number is required",
	"DoctorProfile.Hospital.required":       "Hospital name is required",
	"DoctorProfile.Address.required":        "Address is required",
	"DoctorProfile.ExperienceYears.gt":      "Experience must be greater than 0",
	"DoctorProfile.Fee.gt":                  "Consultation fee must be greater than 0",
	"DoctorProfile.AvailableDays.min":       "Select at least one available day",
	"DoctorProfile.AvailableDays.oneof":     "Available days must be weekdays from Monday to Sunday",
	"DoctorProfile.AvailableSlots.min":      "Select at least one time slot",

	"PatientProfile.Age.gte":                        "Age must be between 1 and 150",
	"PatientProfile.Age.lte":                        "Age must be between 1 and 150",
	"PatientProfile.Gender.required":                "Gender is required",
	"PatientProfile.Gender.oneof":                   "Gender must be male, female or other",
	"PatientProfile.BloodGroup.required":            "Blood group is required",
	"PatientProfile.BloodGroup.oneof":               "Select a valid blood group",
	"PatientProfile.Phone.required":                 "Phone number is required",
	"PatientProfile.Address.required":               "Address is required",
	"PatientProfile.EmergencyContactName.required":  "Emergency contact name is required",
	"PatientProfile.EmergencyContactPhone.required": "Emergency contact phone is required",
}

// Service owns the doctor and patient profile flows.
type Service struct {
	api       *apiclient.Client
	validator validator.Validator
}

func NewService(api *apiclient.Client) *Service {
	return &Service{
		api:       api,
		validator: validator.New(validator.WithMessages(profileMessages)),
	}
}

// ValidateDoctor runs the doctor form checks; the first failure is returned.
func (s *Service) ValidateDoctor(p *model.DoctorProfile) error {
	return s.validator.Validate(p)
}

// ValidatePatient runs the patient form checks; the first failure is returned.
func (s *Service) ValidatePatient(p *model.PatientProfile) error {
	return s.validator.Validate(p)
}

func (s *Service) GetDoctor(ctx context.Context) (*model.DoctorProfile, error) {
	var rec model.DoctorProfileRecord
	if err := s.api.Get(ctx, doctorProfileMePath, &rec); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to get doctor profile: %w", err))
	}
	p := DoctorFromBackend(rec)
	return &p, nil
}

// CreateDoctor is the first-time profile setup after a doctor registers.
func (s *Service) CreateDoctor(ctx context.Context, p *model.DoctorProfile) (*model.DoctorProfile, error) {
	return s.saveDoctor(ctx, p, s.api.Post)
}

func (s *Service) UpdateDoctor(ctx context.Context, p *model.DoctorProfile) (*model.DoctorProfile, error) {
	return s.saveDoctor(ctx, p, s.api.Patch)
}

type sendFunc func(ctx context.Context, path string, body, out interface{}) error

func (s *Service) saveDoctor(ctx context.Context, p *model.DoctorProfile, send sendFunc) (*model.DoctorProfile, error) {
	if err := s.ValidateDoctor(p); err != nil {
		return nil, err
	}

	var rec model.DoctorProfileRecord
	if err := send(ctx, doctorProfilePath, DoctorToBackend(*p), &rec); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to save doctor profile: %w", err))
	}
	if rec.Specialization == "" {
		// Some endpoints answer with a bare acknowledgement.
		return p, nil
	}
	saved := DoctorFromBackend(rec)
	return &saved, nil
}

func (s *Service) GetPatient(ctx context.Context) (*model.PatientProfile, error) {
	var w model.PatientProfileWire
	if err := s.api.Get(ctx, patientProfileMe, &w); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to get patient profile: %w", err))
	}
	p := PatientFromBackend(w)
	return &p, nil
}

// CreatePatient is used by signup phase two and by the profile setup page.
func (s *Service) CreatePatient(ctx context.Context, p *model.PatientProfile) (*model.PatientProfile, error) {
	return s.savePatient(ctx, p, s.api.Post)
}

func (s *Service) UpdatePatient(ctx context.Context, p *model.PatientProfile) (*model.PatientProfile, error) {
	return s.savePatient(ctx, p, s.api.Patch)
}

func (s *Service) savePatient(ctx context.Context, p *model.PatientProfile, send sendFunc) (*model.PatientProfile, error) {
	if err := s.ValidatePatient(p); err != nil {
		return nil, err
	}

	var w model.PatientProfileWire
	if err := send(ctx, patientProfilePath, PatientToBackend(*p), &w); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to save patient profile: %w", err))
	}
	if w.Gender == "" {
		return p, nil
	}
	saved := PatientFromBackend(w)
	return &saved, nil
}
