package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest_CreateUser(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateUserRequest
		wantMsg string
	}{
		{"valid", CreateUserRequest{Name: "Ada", Email: "ada@example.com"}, ""},
		{"missing name", CreateUserRequest{Email: "ada@example.com"}, "Name is Required"},
		{"blank name", CreateUserRequest{Name: "   ", Email: "ada@example.com"}, "Name is Required"},
		{"missing email", CreateUserRequest{Name: "Ada"}, "Email is Required"},
		{"malformed email", CreateUserRequest{Name: "Ada", Email: "not-an-email"}, "Email is invalid"},
		{"first violation wins", CreateUserRequest{Email: "nope"}, "Name is Required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Message)
			assert.Equal(t, tt.wantMsg, verr.Error())
		})
	}
}

func TestValidateRequest_CollectsAllViolations(t *testing.T) {
	err := ValidateRequest(CreateUserRequest{Email: "nope"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 2)
	assert.Equal(t, "name", verr.Violations[0].Field)
	assert.Equal(t, "email", verr.Violations[1].Field)
}

func TestValidateRequest_UpdateUser(t *testing.T) {
	assert.NoError(t, ValidateRequest(UpdateUserRequest{Name: "Ada"}))

	var verr *ValidationError
	require.ErrorAs(t, ValidateRequest(UpdateUserRequest{ID: "x"}), &verr)
	assert.Equal(t, "Name is Required", verr.Message)
}
