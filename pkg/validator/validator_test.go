package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Jawadyyy/healthmate-portal/pkg/errors"
)

type form struct {
	Name  string   `json:"name" validate:"required"`
	Email string   `json:"email" validate:"required,email"`
	Age   int      `json:"age" validate:"gte=1,lte=150"`
	Days  []string `json:"days" validate:"min=1,dive,oneof=Monday Tuesday"`
}

func validForm() form {
	return form{Name: "Ann", Email: "ann@example.com", Age: 30, Days: []string{"Monday"}}
}

func TestValidate_Valid(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(validForm()))
	assert.Empty(t, v.Messages(validForm()))
}

func TestValidate_FirstFailureWins(t *testing.T) {
	v := New(WithMessages(Messages{
		"form.Name.required": "Name is required",
		"form.Age.gte":       "Age must be between 1 and 150",
	}))

	f := validForm()
	f.Name = ""
	f.Age = 0

	err := v.Validate(f)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "Name is required", err.Error())
	assert.Equal(t, []string{"Name is required", "Age must be between 1 and 150"}, v.Messages(f))
}

func TestValidate_DefaultMessages(t *testing.T) {
	v := New()

	f := validForm()
	f.Email = "not-an-email"
	assert.Equal(t, "Please enter a valid email address", v.Validate(f).Error())

	f = validForm()
	f.Days = nil
	assert.Equal(t, "days must have at least 1 entries", v.Validate(f).Error())

	f = validForm()
	f.Days = []string{"Funday"}
	assert.Equal(t, "days[0] must be one of: Monday, Tuesday", v.Validate(f).Error())
}

func TestValidate_IndexedFieldUsesTable(t *testing.T) {
	v := New(WithMessages(Messages{"form.Days.oneof": "Pick a weekday"}))
	f := validForm()
	f.Days = []string{"Monday", "Funday"}
	assert.Equal(t, "Pick a weekday", v.Validate(f).Error())
}

func TestValidate_Pointer(t *testing.T) {
	f := validForm()
	assert.NoError(t, New().Validate(&f))
}

type note struct {
	Title string `json:"title" validate:"notblank"`
	Count int    `json:"count" validate:"notblank"`
}

func TestValidate_NotBlankRejectsWhitespace(t *testing.T) {
	v := New(WithMessages(Messages{"note.Title.required": "Title is required"}))

	tests := []struct {
		name    string
		in      note
		wantMsg string
	}{
		{"filled", note{Title: " Rx ", Count: 1}, ""},
		{"empty", note{Count: 1}, "Title is required"},
		{"spaces", note{Title: "   ", Count: 1}, "Title is required"},
		{"tabs and newlines", note{Title: "\t\n", Count: 1}, "Title is required"},
		{"zero non-string", note{Title: "Rx"}, "count is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}
