package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/orders/internal/errors"
)

func TestWrapValidationError(t *testing.T) {
	t.Run("wraps error as invalid input", func(t *testing.T) {
		err := WrapValidationError(apperrors.New("customerId: cannot be blank"))

		assert.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		assert.Contains(t, err.Error(), "customerId")
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})
}
