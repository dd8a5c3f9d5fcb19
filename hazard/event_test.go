package hazard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventIsValid(t *testing.T) {
	for _, e := range AllEvents() {
		assert.True(t, e.IsValid(), "event %s should be valid", e)
	}

	assert.True(t, EventUnknown.IsValid())
	assert.False(t, Event("Meteorite").IsValid())
	assert.False(t, Event("").IsValid())
}

func TestParseEvent(t *testing.T) {
	t.Run("known event", func(t *testing.T) {
		e, err := ParseEvent("RiverineInundation")
		require.NoError(t, err)
		assert.Equal(t, EventRiverineInundation, e)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := ParseEvent("Meteorite")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown hazard event")
	})
}

func TestAllEventsExcludesUnknown(t *testing.T) {
	for _, e := range AllEvents() {
		assert.NotEqual(t, EventUnknown, e)
	}
}
