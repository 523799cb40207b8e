// Package notify announces newly seen update candidates on NATS.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/updatesnap/internal/config"
	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/history"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
)

// Event is the JSON payload of one candidate.
type Event struct {
	Project   string    `json:"project"`
	Part      string    `json:"part"`
	Tag       string    `json:"tag"`
	Pinned    string    `json:"pinned,omitempty"`
	TagDate   time.Time `json:"tag_date,omitzero"`
	FirstSeen time.Time `json:"first_seen"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher announces candidates.
type Publisher interface {
	Publish(ctx context.Context, candidates []history.Candidate) error
	Close() error
}

// Noop discards everything.
type Noop struct{}

func (Noop) Publish(context.Context, []history.Candidate) error { return nil }
func (Noop) Close() error                                       { return nil }

// sender is the transport below NATSPublisher.
type sender interface {
	send(ctx context.Context, subject string, data []byte) error
}

type coreSender struct{ conn *nats.Conn }

func (s coreSender) send(ctx context.Context, subject string, data []byte) error {
	if err := s.conn.Publish(subject, data); err != nil {
		return err
	}
	return s.conn.FlushWithContext(ctx)
}

type streamSender struct{ js jetstream.JetStream }

func (s streamSender) send(ctx context.Context, subject string, data []byte) error {
	_, err := s.js.Publish(ctx, subject, data)
	return err
}

// NATSPublisher publishes one message per candidate.
type NATSPublisher struct {
	conn    *nats.Conn
	sender  sender
	subject string
	now     func() time.Time
	logger  *slog.Logger
}

// New returns a NATSPublisher when cfg names a server, and Noop otherwise.
// With a stream configured, messages go through JetStream and the stream
// is created when missing.
func New(ctx context.Context, cfg config.NotifyConfig, logger *slog.Logger) (Publisher, error) {
	if !cfg.Enabled() {
		return Noop{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(cfg.URL, nats.Name("updatesnap"), nats.Timeout(10*time.Second))
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", cfg.URL).
			Build()
	}

	var s sender = coreSender{conn: conn}
	if cfg.Stream != "" {
		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create JetStream context").Build()
		}
		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:        cfg.Stream,
			Description: "updatesnap update candidates",
			Subjects:    []string{cfg.Subject},
		})
		if err != nil {
			conn.Close()
			return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create stream").
				WithContext("stream", cfg.Stream).
				Build()
		}
		s = streamSender{js: js}
	}

	logger.Info("NATS publisher initialized",
		logfields.URL(cfg.URL),
		logfields.Subject(cfg.Subject),
		slog.String("stream", cfg.Stream))
	return newPublisher(conn, s, cfg.Subject, logger), nil
}

func newPublisher(conn *nats.Conn, s sender, subject string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, sender: s, subject: subject, now: time.Now, logger: logger}
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, candidates []history.Candidate) error {
	for _, c := range candidates {
		data, err := json.Marshal(Event{
			Project:   c.Project,
			Part:      c.Part,
			Tag:       c.Tag,
			Pinned:    c.Pinned,
			TagDate:   c.TagDate,
			FirstSeen: c.FirstSeen,
			RunID:     c.RunID,
			Timestamp: p.now(),
		})
		if err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "failed to marshal event").Build()
		}
		if err := p.sender.send(ctx, p.subject, data); err != nil {
			return errors.NetworkError("failed to publish candidate").
				WithCause(err).
				WithContext("subject", p.subject).
				WithContext("part", c.Part).
				Build()
		}
		p.logger.Debug("Published candidate",
			logfields.Subject(p.subject),
			logfields.Part(c.Part),
			logfields.Tag(c.Tag))
	}
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
