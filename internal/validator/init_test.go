package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Username string `json:"username" binding:"required,min=3,max=20,username"`
	Email    string `json:"email" binding:"required,email"`
	Born     string `json:"born" binding:"omitempty,isodate"`
}

func TestValidateStruct(t *testing.T) {
	v := &ginValidator{}

	tests := []struct {
		name    string
		form    signupForm
		wantErr string
	}{
		{name: "valid", form: signupForm{Username: "alice_01", Email: "a@x.com", Born: "1990-04-01"}},
		{name: "username with dash", form: signupForm{Username: "al-ice", Email: "a@x.com"}, wantErr: "username must contain only letters, digits or underscores"},
		{name: "username too short", form: signupForm{Username: "al", Email: "a@x.com"}, wantErr: "username must be at least 3 characters"},
		{name: "bad email", form: signupForm{Username: "alice", Email: "nope"}, wantErr: "email must be a valid email address"},
		{name: "bad date", form: signupForm{Username: "alice", Email: "a@x.com", Born: "01/04/1990"}, wantErr: "born must be a date in YYYY-MM-DD format"},
		{name: "missing email", form: signupForm{Username: "alice"}, wantErr: "email is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(&tt.form)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, Describe(err))
		})
	}
}

func TestValidateStruct_IgnoresNonStructs(t *testing.T) {
	v := &ginValidator{}

	assert.NoError(t, v.ValidateStruct(nil))
	assert.NoError(t, v.ValidateStruct([]string{"a"}))
	var nilForm *signupForm
	assert.NoError(t, v.ValidateStruct(nilForm))
	assert.Same(t, GetValidator(), v.Engine())
}
