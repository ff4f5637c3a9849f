package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTransition_HappyPath(t *testing.T) {
	path := []Stage{StageAwaitingTier, StageExtracting, StageTranscribing, StageDelivering, StageDone}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, ValidTransition(path[i], path[i+1]), "%s -> %s", path[i], path[i+1])
	}
}

func TestValidTransition_FailureAndCancelFromAnyActiveStage(t *testing.T) {
	active := []Stage{StageAwaitingTier, StageExtracting, StageTranscribing, StageDelivering}
	for _, from := range active {
		assert.True(t, ValidTransition(from, StageFailed), "%s -> failed", from)
		assert.True(t, ValidTransition(from, StageCancelled), "%s -> cancelled", from)
	}
}

func TestValidTransition_RejectsSkipsAndTerminalExits(t *testing.T) {
	assert.False(t, ValidTransition(StageAwaitingTier, StageTranscribing))
	assert.False(t, ValidTransition(StageExtracting, StageDone))
	assert.False(t, ValidTransition(StageDone, StageExtracting))
	assert.False(t, ValidTransition(StageCancelled, StageDone))
	assert.False(t, ValidTransition(StageFailed, StageCancelled))
}

func TestStageTerminal(t *testing.T) {
	assert.True(t, StageDone.Terminal())
	assert.True(t, StageFailed.Terminal())
	assert.True(t, StageCancelled.Terminal())
	assert.False(t, StageAwaitingTier.Terminal())
	assert.False(t, StageTranscribing.Terminal())
}

func TestParseTier(t *testing.T) {
	for _, tier := range Tiers() {
		parsed, err := ParseTier(string(tier))
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}

	_, err := ParseTier("enormous")
	assert.Error(t, err)
}

func TestTierWhisperModel(t *testing.T) {
	assert.Equal(t, "large", TierHighAccuracy.WhisperModel())
	assert.Equal(t, "base", TierBalanced.WhisperModel())
	assert.Equal(t, "tiny", TierFast.WhisperModel())
}

func TestTierLabel(t *testing.T) {
	assert.Equal(t, "Large", TierHighAccuracy.Label())
	assert.Equal(t, "Base (recommended)", TierBalanced.Label())
	assert.Equal(t, "Tiny", TierFast.Label())
}
