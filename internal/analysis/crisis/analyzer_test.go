package crisis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreenHighRiskPhrase(t *testing.T) {
	a := Screen("Honestly I want to die")
	assert.Equal(t, High, a.Level)
	assert.True(t, a.Flagged())
	assert.Contains(t, a.Matches, "want to die")
}

func TestScreenNormalizesQuotesAndSpacing(t *testing.T) {
	a := Screen("I  don’t want to be\nalive")
	assert.True(t, a.Flagged())
}

func TestScreenSingleConcernIsNotFlagged(t *testing.T) {
	a := Screen("I feel hopeless about this exam")
	assert.Equal(t, Concern, a.Level)
	assert.False(t, a.Flagged())
}

func TestScreenStackedConcernsEscalate(t *testing.T) {
	a := Screen("I feel worthless and hopeless")
	assert.Equal(t, High, a.Level)
	assert.GreaterOrEqual(t, a.Score, concernThreshold)
}

func TestScreenNeutralText(t *testing.T) {
	a := Screen("I feel anxious")
	assert.Equal(t, None, a.Level)
	assert.Empty(t, a.Matches)

	assert.Equal(t, None, Screen("   ").Level)
}
