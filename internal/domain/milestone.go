package domain

import (
	"fmt"
	"slices"
)

var defaultMilestoneHours = []int{4, 8, 12, 14, 16, 18, 20, 24, 36, 48, 72}

func DefaultMilestoneHours() []int {
	return slices.Clone(defaultMilestoneHours)
}

// NormalizeMilestoneHours sorts ascending, drops duplicates and non-positive hours.
func NormalizeMilestoneHours(hours []int) []int {
	out := make([]int, 0, len(hours))
	for _, h := range hours {
		if h > 0 {
			out = append(out, h)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func MilestoneTag(hours int) string {
	return fmt.Sprintf("%s-%dh", TagMilestone, hours)
}

func MilestoneNotification(hours int) Notification {
	body := fmt.Sprintf("You have been fasting for %d hours.", hours)
	if zone, ok := ZoneAt(float64(hours)); ok {
		body = fmt.Sprintf("You have been fasting for %d hours and reached %s. %s", hours, zone.Name, zone.Description)
	}

	return Notification{
		Title: fmt.Sprintf("%d hour milestone", hours),
		Body:  body,
		Tag:   MilestoneTag(hours),
	}
}
