package domain

import "fmt"

const (
	TagFastStarted       = "fast-started"
	TagFastCompleted     = "fast-completed"
	TagAchievement       = "achievement"
	TagMilestone         = "milestone"
	TagHydrationReminder = "hydration-reminder"
)

type Notification struct {
	Title              string
	Body               string
	Tag                string
	RequireInteraction bool
}

func FastStartedNotification(protocol string, targetHours float64) Notification {
	return Notification{
		Title: "Fast started",
		Body:  fmt.Sprintf("Your %s fast is running. Target: %g hours.", protocol, targetHours),
		Tag:   TagFastStarted,
	}
}

func FastCompletedNotification(elapsedHours float64, streak int) Notification {
	body := fmt.Sprintf("You fasted for %.1f hours.", elapsedHours)
	if streak > 0 {
		body = fmt.Sprintf("You fasted for %.1f hours. Current streak: %d.", elapsedHours, streak)
	}

	return Notification{
		Title:              "Fast completed",
		Body:               body,
		Tag:                TagFastCompleted,
		RequireInteraction: true,
	}
}

func StreakFreezeNotification(streak int) Notification {
	return Notification{
		Title:              "Streak freeze earned",
		Body:               fmt.Sprintf("A %d day streak earned you a streak freeze.", streak),
		Tag:                TagAchievement,
		RequireInteraction: true,
	}
}

func HydrationReminderNotification(status HydrationStatus) Notification {
	return Notification{
		Title: "Time to hydrate",
		Body:  fmt.Sprintf("You have had %d of %d ml today.", status.ConsumedML, status.GoalML),
		Tag:   TagHydrationReminder,
	}
}
