package domain

import "math"

type Zone struct {
	Name        string
	StartHour   float64
	EndHour     float64
	Color       string
	Description string
}

var zones = []Zone{
	{Name: "Anabolic", StartHour: 0, EndHour: 4, Color: "#94a3b8", Description: "Blood sugar rises and settles as the last meal is digested."},
	{Name: "Catabolic", StartHour: 4, EndHour: 8, Color: "#60a5fa", Description: "Insulin drops and the body starts drawing on stored glycogen."},
	{Name: "Fat Burning", StartHour: 8, EndHour: 12, Color: "#34d399", Description: "Glycogen runs low and fat becomes a primary fuel."},
	{Name: "Ketosis", StartHour: 12, EndHour: 16, Color: "#fbbf24", Description: "The liver produces ketones from fat for energy."},
	{Name: "Deep Ketosis", StartHour: 16, EndHour: 18, Color: "#f97316", Description: "Ketone levels climb and hunger usually eases."},
	{Name: "Autophagy", StartHour: 18, EndHour: 24, Color: "#ef4444", Description: "Cells begin recycling damaged components."},
	{Name: "Deep Autophagy", StartHour: 24, EndHour: 48, Color: "#a855f7", Description: "Cellular cleanup and growth hormone peak."},
}

func Zones() []Zone {
	out := make([]Zone, len(zones))
	copy(out, zones)
	return out
}

// ZoneAt uses half-open [StartHour, EndHour) ranges. Past the charted range the
// deepest zone is reported instead of none.
func ZoneAt(hours float64) (Zone, bool) {
	if math.IsNaN(hours) || hours <= 0 {
		return Zone{}, false
	}

	for _, zone := range zones {
		if zone.StartHour <= hours && hours < zone.EndHour {
			return zone, true
		}
	}

	return zones[len(zones)-1], true
}
