// Package clinical implements the doctor's prescription, medical record and
// patient selector flows.
package clinical

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
	"github.com/Jawadyyy/healthmate-portal/pkg/validator"
)

const MsgNoCompleteMedication = "Add at least one complete medication"

var clinicalMessages = validator.Messages{
	"PrescriptionRequest.PatientID.required":  "Select a patient",
	"PrescriptionRequest.Diagnosis.required":  "Diagnosis is required",
	"PrescriptionRequest.Refills.gte":         "Refills must be between 0 and 12",
	"PrescriptionRequest.Refills.lte":         "Refills must be between 0 and 12",
	"MedicalRecordRequest.PatientID.required": "Select a patient",
	"MedicalRecordRequest.Type.required":      "Record type is required",
	"MedicalRecordRequest.Type.oneof":         "Record type must be consultation, diagnosis, lab-report or other",
	"MedicalRecordRequest.Title.required":     "Title is required",
}

type Service struct {
	api       *apiclient.Client
	validator validator.Validator
	now       func() time.Time
}

func NewService(api *apiclient.Client) *Service {
	return &Service{
		api:       api,
		validator: validator.New(validator.WithMessages(clinicalMessages)),
		now:       time.Now,
	}
}

// CompleteMedications keeps only entries with name, dosage, frequency and
// duration all filled, trimming their fields.
func CompleteMedications(meds []model.Medication) []model.Medication {
	out := []model.Medication{}
	for _, m := range meds {
		if !m.Complete() {
			continue
		}
		out = append(out, model.Medication{
			Name:         strings.TrimSpace(m.Name),
			Dosage:       strings.TrimSpace(m.Dosage),
			Frequency:    strings.TrimSpace(m.Frequency),
			Duration:     strings.TrimSpace(m.Duration),
			Instructions: strings.TrimSpace(m.Instructions),
		})
	}
	return out
}

// BuildPrescription validates req and produces the payload. No backend call
// is made, so a failure here never reaches the network.
func (s *Service) BuildPrescription(req *model.PrescriptionRequest) (*model.Prescription, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	meds := CompleteMedications(req.Medications)
	if len(meds) == 0 {
		return nil, apperrors.Validation(MsgNoCompleteMedication)
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = s.now().Format("2006-01-02")
	}

	return &model.Prescription{
		PatientID:   req.PatientID,
		Diagnosis:   strings.TrimSpace(req.Diagnosis),
		Medications: meds,
		Notes:       strings.TrimSpace(req.Notes),
		Refills:     req.Refills,
		Date:        date,
	}, nil
}

func (s *Service) CreatePrescription(ctx context.Context, req *model.PrescriptionRequest) (*model.Prescription, error) {
	payload, err := s.BuildPrescription(req)
	if err != nil {
		return nil, err
	}

	var created model.Prescription
	if err := s.api.Post(ctx, "/prescriptions", payload, &created); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to create prescription: %w", err))
	}
	if created.PatientID == "" {
		return payload, nil
	}
	return &created, nil
}

// NormalizeTags merges the array and CSV forms into a trimmed list without
// duplicates, keeping first-seen order.
func NormalizeTags(tags []string, csv string) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, tag)
	}
	for _, t := range tags {
		add(t)
	}
	for _, t := range strings.Split(csv, ",") {
		add(t)
	}
	return out
}

// BuildRecord validates req and produces the medical record payload.
func (s *Service) BuildRecord(req *model.MedicalRecordRequest) (*model.MedicalRecordPayload, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	meds := []model.Medication{}
	for _, m := range req.Medications {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		meds = append(meds, m)
	}

	var vitals *model.VitalSigns
	if !req.VitalSigns.Empty() {
		vitals = req.VitalSigns
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = s.now().Format("2006-01-02")
	}

	return &model.MedicalRecordPayload{
		PatientID:   req.PatientID,
		Type:        req.Type,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Diagnosis:   strings.TrimSpace(req.Diagnosis),
		Treatment:   strings.TrimSpace(req.Treatment),
		VitalSigns:  vitals,
		Medications: meds,
		Notes:       strings.TrimSpace(req.Notes),
		Date:        date,
		Tags:        NormalizeTags(req.Tags, req.TagsText),
		Attachments: req.Attachments,
	}, nil
}

func (s *Service) CreateRecord(ctx context.Context, req *model.MedicalRecordRequest) (*model.MedicalRecord, error) {
	payload, err := s.BuildRecord(req)
	if err != nil {
		return nil, err
	}

	var rec model.MedicalRecord
	if err := s.api.Post(ctx, "/medical-records", payload, &rec); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to create medical record: %w", err))
	}
	return &rec, nil
}

func (s *Service) UpdateRecord(ctx context.Context, id string, req *model.MedicalRecordRequest) (*model.MedicalRecord, error) {
	payload, err := s.BuildRecord(req)
	if err != nil {
		return nil, err
	}

	var rec model.MedicalRecord
	if err := s.api.Patch(ctx, "/medical-records/"+url.PathEscape(id), payload, &rec); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to update medical record: %w", err))
	}
	return &rec, nil
}

func (s *Service) GetRecord(ctx context.Context, id string) (*model.MedicalRecord, error) {
	var rec model.MedicalRecord
	if err := s.api.Get(ctx, "/medical-records/"+url.PathEscape(id), &rec); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to get medical record: %w", err))
	}
	return &rec, nil
}

// ListRecords returns the caller's records: those a doctor wrote or those
// about a patient.
func (s *Service) ListRecords(ctx context.Context, role model.Role) ([]model.MedicalRecord, error) {
	var path string
	switch role {
	case model.RoleDoctor:
		path = "/medical-records/doctor/me"
	case model.RolePatient:
		path = "/medical-records/patient/me"
	default:
		return nil, apperrors.Forbidden("Medical records are only available to doctors and patients")
	}

	var raw json.RawMessage
	if err := s.api.Get(ctx, path, &raw); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to list medical records: %w", err))
	}
	var recs []model.MedicalRecord
	if err := apiclient.DecodeList(raw, &recs, "records", "medicalRecords"); err != nil {
		return nil, apperrors.Internal(err)
	}
	return recs, nil
}

type patientDoc struct {
	ID      string           `json:"id"`
	MongoID string           `json:"_id"`
	Age     int              `json:"age"`
	Phone   string           `json:"phone"`
	User    *model.PersonRef `json:"userId"`
	Name    string           `json:"name"`
	Email   string           `json:"email"`
}

// Patients lists the doctor's patients for the selector, filtered by a
// case-insensitive match on name or email.
func (s *Service) Patients(ctx context.Context, search string) ([]model.PatientOption, error) {
	var raw json.RawMessage
	if err := s.api.Get(ctx, "/doctors/patients", &raw); err != nil {
		return nil, apperrors.FromAPI(fmt.Errorf("failed to list patients: %w", err))
	}
	var docs []patientDoc
	if err := apiclient.DecodeList(raw, &docs, "patients"); err != nil {
		return nil, apperrors.Internal(err)
	}

	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]model.PatientOption, 0, len(docs))
	for _, d := range docs {
		opt := model.PatientOption{
			ID:    d.ID,
			Name:  d.Name,
			Email: d.Email,
			Phone: d.Phone,
			Age:   d.Age,
		}
		if opt.ID == "" {
			opt.ID = d.MongoID
		}
		if d.User != nil {
			if opt.Name == "" {
				opt.Name = d.User.Name
			}
			if opt.Email == "" {
				opt.Email = d.User.Email
			}
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(opt.Name), search) &&
			!strings.Contains(strings.ToLower(opt.Email), search) {
			continue
		}
		out = append(out, opt)
	}
	return out, nil
}
