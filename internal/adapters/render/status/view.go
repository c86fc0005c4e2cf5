package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bnema/fasttrack-cli/internal/application"
	"github.com/bnema/fasttrack-cli/internal/domain"
)

const barWidth = 24

type RenderOptions struct {
	Hydration *domain.HydrationStatus
	// Language controls digit grouping; the zero value renders English.
	Language language.Tag
}

func renderView(view application.FastStatusView, opts RenderOptions, s styles) string {
	lines := []string{s.title.Render("Fast")}

	if !view.Session.Status.InProgress() {
		lines = append(lines,
			s.empty.Render("No fast in progress."),
			s.header.Render("next protocol: "+protocolLabel(view.Session.Protocol, view.Session.TargetHours)),
		)
	} else {
		lines = append(lines, s.header.Render(protocolLabel(view.Session.Protocol, view.Session.TargetHours)))
		lines = append(lines, s.section.Render(renderSession(view, s)))
	}

	if opts.Hydration != nil {
		lines = append(lines, s.section.Render(hydrationLine(*opts.Hydration, opts.Language, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(view application.FastStatusView, s styles) string {
	state := s.state.Render("fasting")
	if view.Session.Status == domain.FastPaused {
		state = s.paused.Render("paused")
	}

	parts := []string{
		lipgloss.JoinHorizontal(lipgloss.Top,
			state,
			" ",
			s.meta.Render(fmt.Sprintf("since %s", formatStartedAt(view.Session.StartedAt, view.AsOf))),
		),
		lipgloss.JoinHorizontal(lipgloss.Top,
			renderProgressBar(view.Progress, barWidth, s),
			" ",
			lipgloss.NewStyle().Foreground(interpolateColor(view.Progress, 0, 100)).Render(fmt.Sprintf("%3.0f%%", view.Progress)),
		),
		s.key.Render("elapsed:   ") + s.detail.Render(FormatDuration(view.Elapsed)),
	}

	if view.Remaining > 0 {
		parts = append(parts, s.key.Render("remaining: ")+s.detail.Render(FormatDuration(view.Remaining)))
	} else {
		parts = append(parts, s.done.Render("target reached"))
	}

	if view.Zone != nil {
		zoneStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(view.Zone.Color))
		parts = append(parts,
			s.key.Render("zone:      ")+zoneStyle.Render(view.Zone.Name),
			s.meta.Render(view.Zone.Description),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func hydrationLine(status domain.HydrationStatus, tag language.Tag, s styles) string {
	if tag == (language.Tag{}) {
		tag = language.English
	}
	printer := message.NewPrinter(tag)

	text := printer.Sprintf("%d / %d ml", status.ConsumedML, status.GoalML)
	percent := clampPercent(status.Fraction() * 100)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		s.key.Render("water:     "),
		s.detail.Render(text),
		" ",
		s.meta.Render(fmt.Sprintf("(%.0f%%)", percent)),
	)
}

// RenderProtocols lists the fasting protocols, marking the current one.
func RenderProtocols(protocols []domain.Protocol, current string) string {
	s := newStyles()
	lines := []string{s.title.Render("Protocols")}
	for _, protocol := range protocols {
		marker := "  "
		label := s.detail.Render(protocol.Label())
		if strings.EqualFold(protocol.Name, current) {
			marker = "* "
			label = s.state.Render(protocol.Label())
		}
		lines = append(lines, marker+label)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func RenderZones(zones []domain.Zone) string {
	s := newStyles()
	lines := []string{s.title.Render("Zones")}
	for _, zone := range zones {
		name := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(zone.Color)).Render(zone.Name)
		hours := s.meta.Render(fmt.Sprintf("%2.0fh-%2.0fh", zone.StartHour, zone.EndHour))
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, hours, "  ", name, "  ", s.detail.Render(zone.Description)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func protocolLabel(name string, targetHours float64) string {
	if protocol, err := domain.ProtocolByName(name); err == nil {
		return protocol.Label()
	}
	if name == "" {
		return fmt.Sprintf("%gh fast", targetHours)
	}
	return fmt.Sprintf("%s (%gh fast)", name, targetHours)
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// FormatDuration renders whole minutes as "16h 05m", or "45m" under an hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

func formatStartedAt(startedAt, now time.Time) string {
	if startedAt.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return startedAt.Format(time.RFC3339)
	}

	startedAt = startedAt.In(now.Location())
	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := startedAt.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return startedAt.Format("15:04")
	}

	return startedAt.Format("15:04 on 02 Jan")
}

// interpolateColor walks the 256-colour greyscale ramp from 240 to 255.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
