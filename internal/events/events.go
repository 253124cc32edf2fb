// Package events publishes build notifications to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Subject suffixes appended to the configured prefix.
const (
	SubjectBuildCompleted = "build.completed"
	SubjectLinkUnresolved = "link.unresolved"
)

// Publisher delivers a payload to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// BuildCompleted is emitted once per finished run.
type BuildCompleted struct {
	BuildID     string    `json:"build_id"`
	Outcome     string    `json:"outcome"`
	Documents   int       `json:"documents"`
	Pages       int       `json:"pages"`
	Warnings    int       `json:"warnings"`
	DurationMS  int64     `json:"duration_ms"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// LinkUnresolved is emitted for every unresolved link warning.
type LinkUnresolved struct {
	BuildID   string    `json:"build_id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Line      int       `json:"line,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Emitter encodes events as JSON and publishes them under a subject prefix.
type Emitter struct {
	pub    Publisher
	prefix string
	now    func() time.Time
}

// NewEmitter returns an emitter publishing to "<prefix>.<event>".
func NewEmitter(pub Publisher, prefix string) *Emitter {
	return &Emitter{pub: pub, prefix: prefix, now: time.Now}
}

// BuildCompleted publishes the run summary.
func (e *Emitter) BuildCompleted(ctx context.Context, ev BuildCompleted) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.now()
	}
	return e.publish(ctx, SubjectBuildCompleted, ev)
}

// LinksUnresolved publishes one event per warning, stopping at the first failure.
func (e *Emitter) LinksUnresolved(ctx context.Context, evs []LinkUnresolved) error {
	ts := e.now()
	for _, ev := range evs {
		if ev.Timestamp.IsZero() {
			ev.Timestamp = ts
		}
		if err := e.publish(ctx, SubjectLinkUnresolved, ev); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying publisher.
func (e *Emitter) Close() error { return e.pub.Close() }

func (e *Emitter) subject(name string) string {
	if e.prefix == "" {
		return name
	}
	return e.prefix + "." + name
}

func (e *Emitter) publish(ctx context.Context, name string, ev any) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.WrapError(err, errors.CategoryEvents, "failed to encode event").Build()
	}
	subject := e.subject(name)
	if err := e.pub.Publish(ctx, subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryEvents, fmt.Sprintf("failed to publish %s", name)).
			WithContext("subject", subject).Build()
	}
	slog.Debug("Published event", logfields.Subject(subject))
	return nil
}
