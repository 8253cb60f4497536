package validator

import (
	"context"
	"testing"

	"contactbook/internal/crud"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Name     string `json:"name" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password_strength"`
	Note     string `json:"note" validate:"omitempty,max=10"`
}

func TestForStruct_StripsUnknownFields(t *testing.T) {
	v := ForStruct[signupForm](New())

	clean, err := v.Validate(context.Background(), crud.Payload{
		"name":     "ada",
		"email":    "ada@example.com",
		"password": "Sup3rSecret",
		"is_admin": true,
		"id":       "attacker-chosen",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada", clean["name"])
	_, hasAdmin := clean["is_admin"]
	assert.False(t, hasAdmin)
	_, hasID := clean["id"]
	assert.False(t, hasID)
}

func TestForStruct_ReportsFieldPaths(t *testing.T) {
	v := ForStruct[signupForm](New())

	_, err := v.Validate(context.Background(), crud.Payload{
		"email":    "not-an-email",
		"password": "short",
	})

	var verr *crud.ValidationError
	require.ErrorAs(t, err, &verr)

	byPath := map[string]string{}
	for _, f := range verr.Fields {
		byPath[f.Path] = f.Message
	}
	assert.Equal(t, "is required", byPath["name"])
	assert.Equal(t, "must be a valid email address", byPath["email"])
	assert.Contains(t, byPath["password"], "8 characters")
}

func TestForPartialStruct_ChecksProvidedFieldsOnly(t *testing.T) {
	v := ForPartialStruct[signupForm](New())

	// name and password are required yet absent: a partial update must not
	// complain about them.
	clean, err := v.Validate(context.Background(), crud.Payload{"email": "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, crud.Payload{"email": "ada@example.com"}, clean)

	_, err = v.Validate(context.Background(), crud.Payload{"email": "nope"})
	var verr *crud.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Fields[0].Path)
}

func TestForPartialStruct_EmptyPayload(t *testing.T) {
	v := ForPartialStruct[signupForm](New())

	clean, err := v.Validate(context.Background(), crud.Payload{"unrelated": 1})
	require.NoError(t, err)
	assert.Empty(t, clean)
}

func TestValidate_TypeMismatch(t *testing.T) {
	v := ForStruct[signupForm](New())

	_, err := v.Validate(context.Background(), crud.Payload{"name": 42})

	var verr *crud.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Fields[0].Path)
}

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"valid", "Sup3rSecret", true},
		{"too_short", "Ab1", false},
		{"no_upper", "alllowercase1", false},
		{"no_digit", "NoDigitsHere", false},
		{"no_lower", "ALLUPPER123", false},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CheckStruct(context.Background(), signupForm{
				Name:     "ada",
				Email:    "ada@example.com",
				Password: tt.password,
			})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				var verr *crud.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "password", verr.Fields[0].Path)
			}
		})
	}
}
