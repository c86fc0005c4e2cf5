package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/ports"
)

const DefaultSubject = "fasttrack.notifications"

var ErrNotConnected = errors.New("nats connection is not available")

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Status() nats.Status
}

type Message struct {
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	Tag                string    `json:"tag"`
	RequireInteraction bool      `json:"require_interaction"`
	SentAt             time.Time `json:"sent_at"`
}

// Publisher forwards notifications to a NATS subject so another process (a
// desktop bridge, a phone push relay) can deliver them.
type Publisher struct {
	subject string
	clock   ports.Clock

	mu   sync.Mutex
	conn conn
	dial func() (conn, error)
}

var _ ports.Notifier = (*Publisher)(nil)

func NewPublisher(c conn, subject string, clock ports.Clock) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Publisher{conn: c, subject: subject, clock: clock}
}

// NewLazyPublisher connects to url on the first permission request.
func NewLazyPublisher(url, subject string, clock ports.Clock) *Publisher {
	p := NewPublisher(nil, subject, clock)
	p.dial = func() (conn, error) {
		nc, err := Connect(url)
		if err != nil {
			return nil, err
		}
		return nc, nil
	}
	return p
}

// Connect dials url and returns a connection suitable for NewPublisher.
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url,
		nats.Name("fasttrack"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

// RequestPermission grants delivery while the connection is up.
func (p *Publisher) RequestPermission(context.Context) (bool, error) {
	c, err := p.connection()
	if err != nil {
		return false, err
	}
	if c == nil {
		return false, nil
	}
	return c.Status() == nats.CONNECTED, nil
}

func (p *Publisher) Send(ctx context.Context, notification domain.Notification) (bool, error) {
	c, err := p.connection()
	if err != nil {
		return false, err
	}
	if c == nil {
		return false, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	data, err := json.Marshal(Message{
		Title:              notification.Title,
		Body:               notification.Body,
		Tag:                notification.Tag,
		RequireInteraction: notification.RequireInteraction,
		SentAt:             p.clock.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("encode notification: %w", err)
	}

	if err := c.Publish(p.subject, data); err != nil {
		return false, fmt.Errorf("publish notification: %w", err)
	}
	return true, nil
}

// Close drains a connection the publisher dialed itself.
func (p *Publisher) Close() {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if nc, ok := p.conn.(*nats.Conn); ok && p.dial != nil {
		_ = nc.Drain()
	}
	p.conn = nil
}

func (p *Publisher) connection() (conn, error) {
	if p == nil {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil && p.dial != nil {
		c, err := p.dial()
		if err != nil {
			return nil, err
		}
		p.conn = c
	}
	return p.conn, nil
}
