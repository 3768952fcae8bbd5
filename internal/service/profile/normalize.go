package profile

import (
	"strings"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
)

// DegreesStringToArray splits a comma-separated list, trimming entries and
// dropping empty ones.
func DegreesStringToArray(csv string) []string {
	out := []string{}
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ArrayToDegreesString joins list with ", ", skipping blank entries.
func ArrayToDegreesString(list []string) string {
	kept := make([]string, 0, len(list))
	for _, item := range list {
		if item = strings.TrimSpace(item); item != "" {
			kept = append(kept, item)
		}
	}
	return strings.Join(kept, ", ")
}

// DoctorFromBackend reconciles both backend naming conventions into the edit
// model. The newer names win when both are present.
func DoctorFromBackend(rec model.DoctorProfileRecord) model.DoctorProfile {
	p := model.DoctorProfile{
		ID:              rec.ID,
		Specialization:  rec.Specialization,
		Qualification:   rec.Qualification,
		Phone:           rec.Phone,
		Address:         rec.Address,
		ExperienceYears: rec.ExperienceYears,
		Bio:             rec.Bio,
		Languages:       nonNil(rec.Languages),
		AvailableDays:   nonNil(rec.AvailableDays),
		AvailableSlots:  nonNil(rec.AvailableSlots),
	}
	if rec.UserID != nil {
		p.UserID = rec.UserID.ID
		p.Name = rec.UserID.Name
		p.Email = rec.UserID.Email
	}

	p.Fee = rec.ConsultationFee
	if p.Fee == 0 {
		p.Fee = rec.Fee
	}
	p.Hospital = rec.HospitalName
	if p.Hospital == "" {
		p.Hospital = rec.Hospital
	}

	if strings.TrimSpace(rec.Degrees) != "" {
		p.Degrees = DegreesStringToArray(rec.Degrees)
	} else {
		p.Degrees = DegreesStringToArray(strings.Join(rec.Certifications, ","))
	}
	return p
}

// DoctorToBackend produces the payload the profile endpoints accept.
func DoctorToBackend(p model.DoctorProfile) model.DoctorProfileRecord {
	degrees := DegreesStringToArray(strings.Join(p.Degrees, ","))
	return model.DoctorProfileRecord{
		Specialization:  strings.TrimSpace(p.Specialization),
		Qualification:   strings.TrimSpace(p.Qualification),
		ExperienceYears: p.ExperienceYears,
		ConsultationFee: p.Fee,
		HospitalName:    strings.TrimSpace(p.Hospital),
		Degrees:         ArrayToDegreesString(degrees),
		Certifications:  degrees,
		Phone:           strings.TrimSpace(p.Phone),
		Address:         strings.TrimSpace(p.Address),
		Bio:             p.Bio,
		Languages:       nonNil(p.Languages),
		AvailableDays:   nonNil(p.AvailableDays),
		AvailableSlots:  nonNil(p.AvailableSlots),
	}
}

// PatientFromBackend converts the wire shape, splitting medical conditions.
func PatientFromBackend(w model.PatientProfileWire) model.PatientProfile {
	p := model.PatientProfile{
		ID:                    w.ID,
		Age:                   w.Age,
		Gender:                w.Gender,
		BloodGroup:            w.BloodGroup,
		Phone:                 w.Phone,
		Address:               w.Address,
		EmergencyContactName:  w.EmergencyContactName,
		EmergencyContactPhone: w.EmergencyContactPhone,
		MedicalConditions:     DegreesStringToArray(w.MedicalConditions),
	}
	if w.UserID != nil {
		p.UserID = w.UserID.ID
		p.Name = w.UserID.Name
		p.Email = w.UserID.Email
	}
	return p
}

// PatientToBackend joins medical conditions back into the CSV the backend stores.
func PatientToBackend(p model.PatientProfile) model.PatientProfileWire {
	return model.PatientProfileWire{
		Age:                   p.Age,
		Gender:                p.Gender,
		BloodGroup:            p.BloodGroup,
		Phone:                 strings.TrimSpace(p.Phone),
		Address:               strings.TrimSpace(p.Address),
		EmergencyContactName:  strings.TrimSpace(p.EmergencyContactName),
		EmergencyContactPhone: strings.TrimSpace(p.EmergencyContactPhone),
		MedicalConditions:     ArrayToDegreesString(p.MedicalConditions),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
