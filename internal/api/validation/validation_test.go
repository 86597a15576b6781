package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signUp struct {
	Name            string `json:"name" validate:"required,min=1,max=100"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type member struct {
	Role string `json:"role" validate:"omitempty,oneof=manager editor viewer"`
	Page int    `validate:"omitempty,min=1,max=100"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		input  interface{}
		fields map[string]string
	}{
		{
			name:   "valid",
			input:  signUp{Name: "Alice", Email: "alice@example.com", Password: "password123", ConfirmPassword: "password123"},
			fields: map[string]string{},
		},
		{
			name:  "missing fields",
			input: signUp{},
			fields: map[string]string{
				"name":            "The name field must be defined",
				"email":           "The email field must be defined",
				"password":        "The password field must be defined",
				"confirmPassword": "The confirmPassword field must be defined",
			},
		},
		{
			name:  "bad email and short password",
			input: signUp{Name: "A", Email: "nope", Password: "short", ConfirmPassword: "short"},
			fields: map[string]string{
				"email":    "The email field must be a valid email address",
				"password": "The password field must have at least 8 characters",
			},
		},
		{
			name:  "confirmation mismatch",
			input: signUp{Name: "A", Email: "a@example.com", Password: "password123", ConfirmPassword: "password124"},
			fields: map[string]string{
				"confirmPassword": "The confirmPassword field and password field must be the same",
			},
		},
		{
			name:   "owner is not assignable",
			input:  member{Role: "owner"},
			fields: map[string]string{"role": "The selected role is invalid"},
		},
		{
			name:   "empty optional role",
			input:  member{},
			fields: map[string]string{},
		},
		{
			name:   "untagged field uses go name",
			input:  member{Page: 101},
			fields: map[string]string{"Page": "The Page field must not be greater than 100"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fields, Struct(tt.input))
		})
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal_string", "Hello World", "Hello World"},
		{"with_newlines", "Hello\nWorld", "Hello\nWorld"},
		{"with_tabs", "Hello\tWorld", "Hello\tWorld"},
		{"with_null", "Hello\x00World", "HelloWorld"},
		{"with_control", "Hello\x07World", "HelloWorld"},
		{"unicode", "Hello 世界", "Hello 世界"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeString(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
