package uptask_test

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	uptask "github.com/goliatone/go-uptask"
	"github.com/stretchr/testify/assert"
)

func TestIsInvalidTokenError(t *testing.T) {
	assert.True(t, uptask.IsInvalidTokenError(uptask.ErrTokenNotFound))
	assert.True(t, uptask.IsInvalidTokenError(uptask.ErrTokenExpired))
	assert.False(t, uptask.IsInvalidTokenError(uptask.ErrSessionInvalid))
	assert.False(t, uptask.IsInvalidTokenError(nil))
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, uptask.IsTokenExpiredError(errors.New("token is expired by 2h")))
	assert.False(t, uptask.IsTokenExpiredError(errors.New("something else")))
	assert.False(t, uptask.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, uptask.IsMalformedError(errors.New("token is malformed: could not base64 decode")))
	assert.True(t, uptask.IsMalformedError(errors.New("missing or malformed JWT")))
	assert.False(t, uptask.IsMalformedError(errors.New("something else")))
	assert.False(t, uptask.IsMalformedError(nil))
}

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Run("flattens field errors", func(t *testing.T) {
		err := validation.Errors{
			"email":    errors.New("must be a valid email address"),
			"password": errors.New("the length must be between 8 and 100"),
		}

		fields := uptask.FormatValidationErrorToMap(err)
		assert.Equal(t, "must be a valid email address", fields["email"])
		assert.Equal(t, "the length must be between 8 and 100", fields["password"])
	})

	t.Run("non validation errors collapse to a single entry", func(t *testing.T) {
		fields := uptask.FormatValidationErrorToMap(errors.New("boom"))
		assert.Equal(t, map[string]string{"error": "boom"}, fields)
	})

	t.Run("nil error", func(t *testing.T) {
		assert.Empty(t, uptask.FormatValidationErrorToMap(nil))
	})
}
