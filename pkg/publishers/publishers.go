// Package publishers notifies downstream sinks after a harvest run has
// written its artifacts.
package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventArtifactsPublished is the only event type emitted.
const EventArtifactsPublished = "artifacts.published"

// Event describes one completed run.
type Event struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	ProviderID  string         `json:"provider_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Artifacts   []string       `json:"artifacts"`
	Sections    map[string]int `json:"sections"`
	Enriched    int            `json:"enriched"`
}

// attributes returns the routing attributes attached to queue messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_type":  e.Type,
		"provider_id": e.ProviderID,
		"run_id":      e.ID,
	}
}

// Publisher delivers events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Logger is the structured logger used by publishers.
type Logger interface {
	DebugObj(msg, event string, fields map[string]any)
	InfoObj(msg, event string, fields map[string]any)
	WarnObj(msg, event string, fields map[string]any)
	ErrorObj(msg, event string, fields map[string]any)
}

type nopLogger struct{}

func (nopLogger) DebugObj(string, string, map[string]any) {}
func (nopLogger) InfoObj(string, string, map[string]any)  {}
func (nopLogger) WarnObj(string, string, map[string]any)  {}
func (nopLogger) ErrorObj(string, string, map[string]any) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}

// Dispatcher fans an event out to every configured publisher. Delivery
// failures are logged and reported, never retried.
type Dispatcher struct {
	pubs []Publisher
	log  Logger
}

// NewDispatcher wraps already built publishers.
func NewDispatcher(pubs []Publisher, log Logger) *Dispatcher {
	return &Dispatcher{pubs: pubs, log: ensureLogger(log)}
}

// Open loads the publishers file and builds every enabled entry. An empty
// path yields a dispatcher with no publishers.
func Open(ctx context.Context, path string, log Logger) (*Dispatcher, error) {
	log = ensureLogger(log)
	if strings.TrimSpace(path) == "" {
		return NewDispatcher(nil, log), nil
	}

	file, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	pubs, err := BuildAll(ctx, DefaultRegistry(), file.Enabled(), log)
	if err != nil {
		return nil, err
	}
	log.InfoObj("publishers loaded", "publishers_loaded", map[string]any{
		"path":       path,
		"configured": len(file.Publishers),
		"enabled":    len(pubs),
	})
	return NewDispatcher(pubs, log), nil
}

// Len returns the number of publishers.
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}
	return len(d.pubs)
}

// Publish sends evt to each publisher in order and returns how many
// accepted it together with the joined delivery errors.
func (d *Dispatcher) Publish(ctx context.Context, evt Event) (int, error) {
	if d == nil {
		return 0, nil
	}
	if evt.Type == "" {
		evt.Type = EventArtifactsPublished
	}

	delivered := 0
	var errs []error
	for _, p := range d.pubs {
		if err := p.Publish(ctx, evt); err != nil {
			d.log.WarnObj("publisher delivery failed", "publisher_error", map[string]any{
				"publisher_id": p.ID(),
				"type":         p.Type(),
				"run_id":       evt.ID,
				"error":        err.Error(),
			})
			errs = append(errs, fmt.Errorf("publisher %s: %w", p.ID(), err))
			continue
		}
		delivered++
		d.log.DebugObj("publisher delivered event", "publisher_delivery", map[string]any{
			"publisher_id": p.ID(),
			"run_id":       evt.ID,
		})
	}
	return delivered, errors.Join(errs...)
}

// Close releases every publisher.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, p := range d.pubs {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher %s: %w", p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
