package model

// PatientProfile is the portal view of a patient's extended profile.
// MedicalConditions is an array here and a comma-separated string on the wire.
type PatientProfile struct {
	ID                    string   `json:"id,omitempty"`
	UserID                string   `json:"userId,omitempty"`
	Name                  string   `json:"name,omitempty"`
	Email                 string   `json:"email,omitempty"`
	Age                   int      `json:"age" validate:"gte=1,lte=150"`
	Gender                string   `json:"gender" validate:"required,oneof=male female other"`
	BloodGroup            string   `json:"bloodGroup" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Phone                 string   `json:"phone" validate:"notblank"`
	Address               string   `json:"address" validate:"notblank"`
	EmergencyContactName  string   `json:"emergencyContactName" validate:"notblank"`
	EmergencyContactPhone string   `json:"emergencyContactPhone" validate:"notblank"`
	MedicalConditions     []string `json:"medicalConditions"`
}

// PatientProfileWire is the backend shape of a patient profile.
type PatientProfileWire struct {
	ID                    string     `json:"id,omitempty"`
	UserID                *PersonRef `json:"userId,omitempty"`
	Age                   int        `json:"age"`
	Gender                string     `json:"gender"`
	BloodGroup            string     `json:"bloodGroup"`
	Phone                 string     `json:"phone"`
	Address               string     `json:"address"`
	EmergencyContactName  string     `json:"emergencyContactName"`
	EmergencyContactPhone string     `json:"emergencyContactPhone"`
	MedicalConditions     string     `json:"medicalConditions"`
}

// DoctorProfileRecord is the backend "read" shape of a doctor profile. Older
// documents carry fee/hospital and degrees as CSV, newer ones
// consultationFee/hospitalName and a certifications array.
type DoctorProfileRecord struct {
	ID              string     `json:"id,omitempty"`
	UserID          *PersonRef `json:"userId,omitempty"`
	Specialization  string     `json:"specialization"`
	Qualification   string     `json:"qualification"`
	ExperienceYears float64    `json:"experienceYears"`
	ConsultationFee float64    `json:"consultationFee,omitempty"`
	Fee             float64    `json:"fee,omitempty"`
	HospitalName    string     `json:"hospitalName,omitempty"`
	Hospital        string     `json:"hospital,omitempty"`
	Degrees         string     `json:"degrees,omitempty"`
	Certifications  []string   `json:"certifications,omitempty"`
	Phone           string     `json:"phone"`
	Address         string     `json:"address"`
	Bio             string     `json:"bio"`
	Languages       []string   `json:"languages"`
	AvailableDays   []string   `json:"availableDays"`
	AvailableSlots  []string   `json:"availableSlots"`
}

// DoctorProfile is the single edit model the portal works with.
type DoctorProfile struct {
	ID              string   `json:"id,omitempty"`
	UserID          string   `json:"userId,omitempty"`
	Name            string   `json:"name,omitempty"`
	Email           string   `json:"email,omitempty"`
	Specialization  string   `json:"specialization" validate:"notblank"`
	Qualification   string   `json:"qualification" validate:"notblank"`
	Phone           string   `json:"phone" validate:"notblank"`
	Hospital        string   `json:"hospital" validate:"notblank"`
	Address         string   `json:"address" validate:"notblank"`
	ExperienceYears float64  `json:"experienceYears" validate:"gt=0"`
	Fee             float64  `json:"fee" validate:"gt=0"`
	AvailableDays   []string `json:"availableDays" validate:"min=1,dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	AvailableSlots  []string `json:"availableSlots" validate:"min=1"`
	Bio             string   `json:"bio"`
	Languages       []string `json:"languages"`
	Degrees         []string `json:"degrees"`
}
