package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/ports"
)

// Notifier prints notifications to a terminal. Permission is granted whenever
// there is somewhere to write.
type Notifier struct {
	out   io.Writer
	clock ports.Clock

	mu     sync.Mutex
	styles styles
}

var _ ports.Notifier = (*Notifier)(nil)

type styles struct {
	stamp  lipgloss.Style
	title  lipgloss.Style
	urgent lipgloss.Style
	body   lipgloss.Style
}

func New(out io.Writer, clock ports.Clock) *Notifier {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Notifier{
		out:   out,
		clock: clock,
		styles: styles{
			stamp:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
			title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
			urgent: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
			body:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2),
		},
	}
}

func (n *Notifier) RequestPermission(context.Context) (bool, error) {
	return n != nil && n.out != nil, nil
}

func (n *Notifier) Send(_ context.Context, notification domain.Notification) (bool, error) {
	if n == nil || n.out == nil {
		return false, nil
	}

	titleStyle := n.styles.title
	if notification.RequireInteraction {
		titleStyle = n.styles.urgent
	}

	header := lipgloss.JoinHorizontal(
		lipgloss.Top,
		n.styles.stamp.Render(n.clock.Now().Format("15:04")),
		" ",
		titleStyle.Render(notification.Title),
	)
	text := header
	if notification.Body != "" {
		text = lipgloss.JoinVertical(lipgloss.Left, header, n.styles.body.Render(notification.Body))
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, err := fmt.Fprintln(n.out, text); err != nil {
		return false, fmt.Errorf("write notification: %w", err)
	}
	return true, nil
}
