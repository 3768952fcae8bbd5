package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Active statuses are the ones a doctor or patient can still act on.
func (s AppointmentStatus) Active() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusScheduled, AppointmentStatusConfirmed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the portal exposes the move from s to next.
// Only active appointments can be completed or cancelled; nothing leaves a
// terminal status.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if !s.Active() {
		return false
	}
	return next == AppointmentStatusCompleted || next == AppointmentStatusCancelled
}

type AppointmentType string

const (
	AppointmentTypeInPerson AppointmentType = "in-person"
	AppointmentTypeVideo    AppointmentType = "video"
	AppointmentTypePhone    AppointmentType = "phone"
)

type Appointment struct {
	ID              string            `json:"id"`
	Patient         PersonRef         `json:"patientId"`
	Doctor          PersonRef         `json:"doctorId"`
	AppointmentDate FlexTime          `json:"appointmentDate"`
	Status          AppointmentStatus `json:"status"`
	Type            AppointmentType   `json:"type,omitempty"`
	Duration        int               `json:"duration,omitempty"`
	Reason          string            `json:"reason,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       FlexTime          `json:"createdAt"`
	UpdatedAt       FlexTime          `json:"updatedAt"`
}

// AppointmentFilter names the tabs of the appointment list pages.
type AppointmentFilter string

const (
	FilterAll       AppointmentFilter = "all"
	FilterToday     AppointmentFilter = "today"
	FilterUpcoming  AppointmentFilter = "upcoming"
	FilterPast      AppointmentFilter = "past"
	FilterPending   AppointmentFilter = "pending"
	FilterCompleted AppointmentFilter = "completed"
	FilterCancelled AppointmentFilter = "cancelled"
)

// AppointmentQuery is the list page's filter state.
type AppointmentQuery struct {
	Filter AppointmentFilter `form:"filter"`
	Search string            `form:"search"`
}

// StatusUpdateRequest moves an appointment to completed or cancelled.
type StatusUpdateRequest struct {
	Status  AppointmentStatus `json:"status" validate:"required,oneof=completed cancelled"`
	Confirm bool              `json:"confirm"`
}

// CancelRequest must carry an explicit confirmation.
type CancelRequest struct {
	Confirm bool   `json:"confirm"`
	Reason  string `json:"reason,omitempty"`
}

// BookAppointmentRequest is the patient's booking form.
type BookAppointmentRequest struct {
	DoctorID        string          `json:"doctorId" validate:"notblank"`
	AppointmentDate string          `json:"appointmentDate" validate:"notblank"`
	Type            AppointmentType `json:"type" validate:"required,oneof=in-person video phone"`
	Duration        int             `json:"duration" validate:"omitempty,gte=15,lte=240"`
	Reason          string          `json:"reason" validate:"notblank"`
	Notes           string          `json:"notes"`
}

// AppointmentStats are the counters shown above the doctor's list.
type AppointmentStats struct {
	Total     int `json:"total"`
	Today     int `json:"today"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Pending   int `json:"pending"`
}

// SameDay reports whether a and b fall on the same calendar day in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
