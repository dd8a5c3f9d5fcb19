// Package hazard defines the taxonomy of physical hazard events that impact
// distributions are attributed to. Event names double as aggregation pool
// labels in the default keying policy.
package hazard

import "fmt"

// Event identifies the hazard class behind an impact distribution.
type Event string

const (
	// EventRiverineInundation is flooding from rivers overtopping their banks.
	EventRiverineInundation Event = "RiverineInundation"

	// EventCoastalInundation is flooding from storm surge and sea level rise.
	EventCoastalInundation Event = "CoastalInundation"

	// EventChronicHeat is sustained high-temperature stress.
	EventChronicHeat Event = "ChronicHeat"

	// EventDrought is prolonged water deficit.
	EventDrought Event = "Drought"

	// EventWildfire is vegetation fire reaching the asset.
	EventWildfire Event = "Wildfire"

	// EventHail is damaging hail precipitation.
	EventHail Event = "Hail"

	// EventWindStorm is extreme wind, including tropical and extratropical storms.
	EventWindStorm Event = "WindStorm"

	// EventSubsidence is ground sinking or shrink-swell soil movement.
	EventSubsidence Event = "Subsidence"

	// EventWaterStress is reduced availability of process or cooling water.
	EventWaterStress Event = "WaterStress"

	// EventUnknown marks an impact whose hazard class could not be determined.
	EventUnknown Event = "Unknown"
)

// IsValid returns true if the event is a known hazard class.
// EventUnknown is a valid member: it is the explicit "unclassified" marker.
func (e Event) IsValid() bool {
	switch e {
	case EventRiverineInundation, EventCoastalInundation, EventChronicHeat,
		EventDrought, EventWildfire, EventHail, EventWindStorm,
		EventSubsidence, EventWaterStress, EventUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the event.
func (e Event) String() string {
	return string(e)
}

// ParseEvent parses a string into an Event value.
// Returns an error if the string is not a known hazard class.
func ParseEvent(s string) (Event, error) {
	e := Event(s)
	if !e.IsValid() {
		return "", fmt.Errorf("unknown hazard event: %s", s)
	}
	return e, nil
}

// AllEvents returns all known hazard classes, excluding EventUnknown.
func AllEvents() []Event {
	return []Event{
		EventRiverineInundation,
		EventCoastalInundation,
		EventChronicHeat,
		EventDrought,
		EventWildfire,
		EventHail,
		EventWindStorm,
		EventSubsidence,
		EventWaterStress,
	}
}
