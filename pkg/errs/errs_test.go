package errs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("loading order 7: %w", NotFound("order not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "order not found", NotFound("order not found").Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidState, CodeOf(fmt.Errorf("wrap: %w", ErrInvalidState)))
	assert.Equal(t, "", CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, "", CodeOf(nil))
}

func TestIs_SiblingSentinelsStayDistinct(t *testing.T) {
	cartEmpty := InvalidState("cart empty")
	noInfo := InvalidState("no delivery info")
	err := fmt.Errorf("payment step: %w", noInfo)

	assert.ErrorIs(t, err, noInfo)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, cartEmpty)
	assert.NotErrorIs(t, ErrInvalidState, noInfo)
}
