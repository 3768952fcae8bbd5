package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FlexTime accepts the date shapes the backend and the forms produce:
// RFC3339 (with or without fraction), a bare datetime and a bare date.
type FlexTime struct {
	time.Time
}

var flexLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseFlexTime parses s with the first matching layout.
func ParseFlexTime(s string) (FlexTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FlexTime{}, nil
	}
	for _, layout := range flexLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return FlexTime{Time: t}, nil
		}
	}
	return FlexTime{}, fmt.Errorf("unrecognized date %q", s)
}

func (t *FlexTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = FlexTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseFlexTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// DateString renders the calendar date used by form fields.
func (t FlexTime) DateString() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// PersonRef is a reference to a patient or doctor that the backend sends
// either as a bare id or as a populated document.
type PersonRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	// Specialization is only present on populated doctor references.
	Specialization string `json:"specialization,omitempty"`
}

func (p *PersonRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = PersonRef{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*p = PersonRef{ID: id}
		return nil
	}

	var doc struct {
		ID             string `json:"id"`
		MongoID        string `json:"_id"`
		Name           string `json:"name"`
		Email          string `json:"email"`
		Phone          string `json:"phone"`
		Specialization string `json:"specialization"`
		User           *struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"userId"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("invalid reference: %w", err)
	}

	ref := PersonRef{
		ID:             firstNonEmpty(doc.ID, doc.MongoID),
		Name:           doc.Name,
		Email:          doc.Email,
		Phone:          doc.Phone,
		Specialization: doc.Specialization,
	}
	if doc.User != nil {
		ref.Name = firstNonEmpty(ref.Name, doc.User.Name)
		ref.Email = firstNonEmpty(ref.Email, doc.User.Email)
	}
	*p = ref
	return nil
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Normalize clamps page and size to sane values.
func (p Pagination) Normalize(maxSize int) Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
