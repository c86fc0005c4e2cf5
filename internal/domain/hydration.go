package domain

import "time"

type HydrationEntry struct {
	At       time.Time
	AmountML int
}

type HydrationStatus struct {
	Day        time.Time
	ConsumedML int
	GoalML     int
}

func (s HydrationStatus) Fraction() float64 {
	if s.GoalML <= 0 {
		return 0
	}
	if s.ConsumedML <= 0 {
		return 0
	}
	return float64(s.ConsumedML) / float64(s.GoalML)
}

// ActiveHours is a local time-of-day window [StartHour, EndHour).
type ActiveHours struct {
	StartHour int
	EndHour   int
}

func (w ActiveHours) Contains(hour int) bool {
	return w.StartHour <= hour && hour < w.EndHour
}

func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
