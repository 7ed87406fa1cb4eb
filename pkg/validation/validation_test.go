package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Website  string `json:"website,omitempty" validate:"omitempty,url"`
	Nested   struct {
		City string `json:"city" validate:"required"`
	} `json:"address"`
}

func TestStruct(t *testing.T) {
	v := New()

	ok := signup{Email: "a@b.test", Password: "longenough"}
	ok.Nested.City = "Jakarta"
	require.NoError(t, v.Struct(ok))

	err := v.Struct(signup{Email: "nope", Password: "short", Website: "::"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	fields := Fields(err)
	require.Len(t, fields, 4)
	assert.Equal(t, "address.city", fields[0].Field)
	assert.Equal(t, "email", fields[1].Field)
	assert.Equal(t, "must be a valid email address", fields[1].Message)
	assert.Equal(t, "password", fields[2].Field)
	assert.Equal(t, "must be at least 8 characters", fields[2].Message)
	assert.Equal(t, "website", fields[3].Field)
}

func TestNewFieldError(t *testing.T) {
	err := NewFieldError("files", "at least one file is required")
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(errors.New("other")))
	assert.Contains(t, err.Error(), "files: at least one file is required")
}
