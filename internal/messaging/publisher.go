package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	// SubjectRegistrationConfirmed is emitted after an event registration commits.
	SubjectRegistrationConfirmed = "registration.confirmed"
	// SubjectSurveySubmitted is emitted after a survey submission commits.
	SubjectSurveySubmitted = "survey.submitted"
	// SubjectComplaintCreated is emitted after a complaint is filed.
	SubjectComplaintCreated = "complaint.created"
)

// Envelope wraps every domain event published to the broker.
type Envelope struct {
	Subject    string      `json:"subject"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher emits domain events after their transaction committed.
// Publishing is best effort and never undoes committed state.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

type natsPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
	now    func() time.Time
}

// NewNATSPublisher returns a publisher bound to conn. A nil connection yields
// a publisher that drops every event.
func NewNATSPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) Publisher {
	return &natsPublisher{
		conn:   conn,
		prefix: strings.Trim(strings.TrimSpace(prefix), "."),
		logger: logger.With().Str("component", "nats_publisher").Logger(),
		now:    time.Now,
	}
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	if p.conn == nil {
		return nil
	}

	full := p.subject(subject)
	body, err := json.Marshal(Envelope{Subject: full, OccurredAt: p.now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", full, err)
	}

	if err := p.conn.Publish(full, body); err != nil {
		p.logger.Warn().Err(err).Str("subject", full).Msg("failed to publish domain event")
		return err
	}

	return nil
}

func (p *natsPublisher) subject(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "." + name
}

// Discard is a Publisher that drops every event.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, string, interface{}) error { return nil }
