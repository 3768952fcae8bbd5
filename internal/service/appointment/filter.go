package appointment

import (
	"sort"
	"strings"
	"time"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
)

// Filter applies a list tab and a free-text search to appts. now decides
// what "today", "upcoming" and "past" mean.
func Filter(appts []model.Appointment, q model.AppointmentQuery, now time.Time) []model.Appointment {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]model.Appointment, 0, len(appts))
	for _, a := range appts {
		if !matchesFilter(a, q.Filter, now) {
			continue
		}
		if search != "" && !matchesSearch(a, search) {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AppointmentDate.Before(out[j].AppointmentDate.Time)
	})
	return out
}

func matchesFilter(a model.Appointment, f model.AppointmentFilter, now time.Time) bool {
	date := a.AppointmentDate.Time
	switch f {
	case "", model.FilterAll:
		return true
	case model.FilterToday:
		return model.SameDay(date, now) &&
			a.Status != model.AppointmentStatusCompleted &&
			a.Status != model.AppointmentStatusCancelled
	case model.FilterUpcoming:
		return date.After(now) && a.Status.Active()
	case model.FilterPast:
		return date.Before(startOfDay(now)) || a.Status == model.AppointmentStatusCompleted
	case model.FilterPending:
		return a.Status == model.AppointmentStatusPending
	case model.FilterCompleted:
		return a.Status == model.AppointmentStatusCompleted
	case model.FilterCancelled:
		return a.Status == model.AppointmentStatusCancelled
	}
	return false
}

func matchesSearch(a model.Appointment, search string) bool {
	for _, field := range []string{a.Patient.Name, a.Doctor.Name, a.Reason} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// Stats counts appointments per tab.
func Stats(appts []model.Appointment, now time.Time) model.AppointmentStats {
	st := model.AppointmentStats{Total: len(appts)}
	for _, a := range appts {
		if matchesFilter(a, model.FilterToday, now) {
			st.Today++
		}
		if matchesFilter(a, model.FilterUpcoming, now) {
			st.Upcoming++
		}
		switch a.Status {
		case model.AppointmentStatusCompleted:
			st.Completed++
		case model.AppointmentStatusCancelled:
			st.Cancelled++
		case model.AppointmentStatusPending:
			st.Pending++
		}
	}
	return st
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ValidFilter reports whether f names a known tab.
func ValidFilter(f model.AppointmentFilter) bool {
	switch f {
	case "", model.FilterAll, model.FilterToday, model.FilterUpcoming, model.FilterPast,
		model.FilterPending, model.FilterCompleted, model.FilterCancelled:
		return true
	}
	return false
}
