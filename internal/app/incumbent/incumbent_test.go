package incumbent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldReplaceWhenOriginalEmpty(t *testing.T) {
	assert.True(t, ShouldReplace(false, 0, false))
}

func TestShouldReplaceWhenSurvivorsExist(t *testing.T) {
	assert.True(t, ShouldReplace(true, 3, false))
}

func TestShouldReplaceGuardsAgainstOutage(t *testing.T) {
	assert.False(t, ShouldReplace(true, 0, false))
}

func TestShouldReplaceWhenConnectedDespiteZeroSurvivors(t *testing.T) {
	assert.True(t, ShouldReplace(true, 0, true))
}
