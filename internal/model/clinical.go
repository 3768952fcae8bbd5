package model

import "strings"

// Medication is one line of a prescription or medical record.
type Medication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions,omitempty"`
}

// Complete is true when every required sub-field is filled.
func (m Medication) Complete() bool {
	return strings.TrimSpace(m.Name) != "" &&
		strings.TrimSpace(m.Dosage) != "" &&
		strings.TrimSpace(m.Frequency) != "" &&
		strings.TrimSpace(m.Duration) != ""
}

// PrescriptionRequest is the doctor's prescription form as submitted.
type PrescriptionRequest struct {
	PatientID   string       `json:"patientId" validate:"notblank"`
	Diagnosis   string       `json:"diagnosis" validate:"notblank"`
	Medications []Medication `json:"medications"`
	Notes       string       `json:"notes"`
	Refills     int          `json:"refills" validate:"gte=0,lte=12"`
	Date        string       `json:"date"`
}

// Prescription is the payload sent to and returned by the backend.
type Prescription struct {
	ID          string       `json:"id,omitempty"`
	PatientID   string       `json:"patientId"`
	DoctorID    string       `json:"doctorId,omitempty"`
	Diagnosis   string       `json:"diagnosis"`
	Medications []Medication `json:"medications"`
	Notes       string       `json:"notes,omitempty"`
	Refills     int          `json:"refills"`
	Date        string       `json:"date"`
}

type RecordType string

const (
	RecordTypeConsultation RecordType = "consultation"
	RecordTypeDiagnosis    RecordType = "diagnosis"
	RecordTypeLabReport    RecordType = "lab-report"
	RecordTypeOther        RecordType = "other"
)

// VitalSigns are optional measurements attached to a record.
type VitalSigns struct {
	BloodPressure    string `json:"bloodPressure,omitempty"`
	HeartRate        string `json:"heartRate,omitempty"`
	Temperature      string `json:"temperature,omitempty"`
	Weight           string `json:"weight,omitempty"`
	RespiratoryRate  string `json:"respiratoryRate,omitempty"`
	OxygenSaturation string `json:"oxygenSaturation,omitempty"`
}

// Empty is true when no measurement was entered.
func (v *VitalSigns) Empty() bool {
	if v == nil {
		return true
	}
	for _, f := range []string{v.BloodPressure, v.HeartRate, v.Temperature, v.Weight, v.RespiratoryRate, v.OxygenSaturation} {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Attachment is a reference to an uploaded file; storage is external.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// MedicalRecord is the backend record shape. VitalSigns is a pointer so an
// empty set is dropped from the payload entirely.
type MedicalRecord struct {
	ID          string       `json:"id,omitempty"`
	Patient     PersonRef    `json:"patientId"`
	Doctor      PersonRef    `json:"doctorId,omitempty"`
	Type        RecordType   `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Diagnosis   string       `json:"diagnosis,omitempty"`
	Treatment   string       `json:"treatment,omitempty"`
	VitalSigns  *VitalSigns  `json:"vitalSigns,omitempty"`
	Medications []Medication `json:"medications,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Date        FlexTime     `json:"date"`
	Tags        []string     `json:"tags,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   FlexTime     `json:"createdAt"`
}

// MedicalRecordRequest is the create/edit form. Tags arrive either as an
// array or as a comma-separated string in TagsText.
type MedicalRecordRequest struct {
	PatientID   string       `json:"patientId" validate:"notblank"`
	Type        RecordType   `json:"type" validate:"required,oneof=consultation diagnosis lab-report other"`
	Title       string       `json:"title" validate:"notblank"`
	Description string       `json:"description"`
	Diagnosis   string       `json:"diagnosis"`
	Treatment   string       `json:"treatment"`
	VitalSigns  *VitalSigns  `json:"vitalSigns"`
	Medications []Medication `json:"medications"`
	Notes       string       `json:"notes"`
	Date        string       `json:"date"`
	Tags        []string     `json:"tags"`
	TagsText    string       `json:"tagsText"`
	Attachments []Attachment `json:"attachments"`
}

// MedicalRecordPayload is what is actually posted upstream.
type MedicalRecordPayload struct {
	PatientID   string       `json:"patientId"`
	Type        RecordType   `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Diagnosis   string       `json:"diagnosis,omitempty"`
	Treatment   string       `json:"treatment,omitempty"`
	VitalSigns  *VitalSigns  `json:"vitalSigns,omitempty"`
	Medications []Medication `json:"medications,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Date        string       `json:"date"`
	Tags        []string     `json:"tags"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// PatientOption is one entry in the doctor's patient selector.
type PatientOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Age   int    `json:"age,omitempty"`
}
