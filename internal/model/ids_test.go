package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentIDs_FallBackToMongoID(t *testing.T) {
	tests := []struct {
		name string
		body string
		id   func(body []byte) (string, error)
	}{
		{"appointment", `{"_id":"a1","status":"pending","patientId":{"_id":"p1","name":"Ann"}}`, func(b []byte) (string, error) {
			var v Appointment
			err := json.Unmarshal(b, &v)
			return v.ID, err
		}},
		{"invoice", `{"_id":"inv1","amount":40,"status":"pending"}`, func(b []byte) (string, error) {
			var v Invoice
			err := json.Unmarshal(b, &v)
			return v.ID, err
		}},
		{"transaction", `{"_id":"tx1","amount":40}`, func(b []byte) (string, error) {
			var v Transaction
			err := json.Unmarshal(b, &v)
			return v.ID, err
		}},
		{"prescription", `{"_id":"rx1","diagnosis":"Flu"}`, func(b []byte) (string, error) {
			var v Prescription
			err := json.Unmarshal(b, &v)
			return v.ID, err
		}},
		{"medical record", `{"_id":"mr1","title":"Checkup"}`, func(b []byte) (string, error) {
			var v MedicalRecord
			err := json.Unmarshal(b, &v)
			return v.ID, err
		}},
		{"patient profile", `{"_id":"pp1","age":30}`, func(b []byte) (string, error) {
			var v PatientProfileWire
			err := json.Unmarshal(b, &v)
			return v.ID, err
		}},
		{"doctor profile", `{"_id":"dp1","specialization":"Cardiology"}`, func(b []byte) (string, error) {
			var v DoctorProfileRecord
			err := json.Unmarshal(b, &v)
			return v.ID, err
		}},
		{"user", `{"_id":"u1","name":"Ann","role":"patient"}`, func(b []byte) (string, error) {
			var v User
			err := json.Unmarshal(b, &v)
			return v.ID, err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.id([]byte(tt.body))
			require.NoError(t, err)
			assert.NotEmpty(t, id)
		})
	}
}

func TestAppointment_DecodesBothIDConventions(t *testing.T) {
	var withID Appointment
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a1","_id":"ignored","status":"pending"}`), &withID))
	assert.Equal(t, "a1", withID.ID)

	var withMongo Appointment
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"a2","status":"scheduled","patientId":{"_id":"p1","name":"Ann"},"appointmentDate":"2024-07-01T10:00:00Z"}`), &withMongo))
	assert.Equal(t, "a2", withMongo.ID)
	assert.Equal(t, AppointmentStatusScheduled, withMongo.Status)
	assert.Equal(t, "p1", withMongo.Patient.ID)
	assert.Equal(t, "Ann", withMongo.Patient.Name)
	assert.Equal(t, 2024, withMongo.AppointmentDate.Year())

	var list []Appointment
	require.NoError(t, json.Unmarshal([]byte(`[{"_id":"a3"},{"id":"a4"}]`), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "a3", list[0].ID)
	assert.Equal(t, "a4", list[1].ID)
}
