// Package changefeed publishes one Kafka message per successful mutation.
//
// The feed is a norm.Hook; install it on a client or return it from a
// schema's Hooks:
//
//	feed, err := changefeed.New(changefeed.Config{
//	    Brokers: []string{"localhost:9092"},
//	    Topic:   "norm.changes",
//	})
//	if err != nil {
//	    return err
//	}
//	defer feed.Close()
//	client.Use(feed.Hook())
//
// Messages are keyed by "<type>:<primary key>" for single-record writes and
// by "<type>" for bulk statements, so the changes of one row stay ordered
// within a partition.
package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/syssam/norm"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("changefeed: closed")

// Writer is the subset of *kafka.Writer used by Feed.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the JSON payload of a message.
type Event struct {
	Op   string `json:"op"`
	Type string `json:"type"`
	// Key is the primary key of the written record; nil for bulk
	// statements.
	Key any `json:"key,omitempty"`
	// Values holds the fields of the written record.
	Values map[string]any `json:"values,omitempty"`
	// Affected is the number of rows changed by an UPDATE or DELETE.
	Affected int64     `json:"affected"`
	SQL      string    `json:"sql"`
	Time     time.Time `json:"time"`
}

// Config configures New.
type Config struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	// RequiredAcks is 0, 1 or -1 (all).
	RequiredAcks int
}

// Option configures a Feed.
type Option func(*Feed)

// Strict makes a failed publish fail the mutation. The statement has
// already run at that point; the error only reports the lost event.
func Strict() Option {
	return func(f *Feed) { f.strict = true }
}

// Log sets the logger used for publish failures.
func Log(l *slog.Logger) Option {
	return func(f *Feed) { f.log = l }
}

// Feed publishes mutation events.
type Feed struct {
	w      Writer
	strict bool
	log    *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
}

// New returns a feed writing to cfg.Topic.
func New(cfg Config, opts ...Option) (*Feed, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("changefeed: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("changefeed: topic is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:  3,
	}
	return NewWithWriter(w, opts...), nil
}

// NewWithWriter returns a feed over an existing writer.
func NewWithWriter(w Writer, opts ...Option) *Feed {
	f := &Feed{w: w, log: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Hook returns the hook publishing the mutations that succeed.
func (f *Feed) Hook() norm.Hook {
	return func(next norm.Mutator) norm.Mutator {
		return norm.MutateFunc(func(ctx context.Context, m norm.Mutation) (norm.Value, error) {
			v, err := next.Mutate(ctx, m)
			if err != nil {
				return v, err
			}
			if perr := f.Publish(ctx, f.event(m, v)); perr != nil {
				if f.strict {
					return v, perr
				}
				f.log.WarnContext(ctx, "changefeed: publish", "op", m.Op(), "type", m.Type(), "error", perr)
			}
			return v, nil
		})
	}
}

func (f *Feed) event(m norm.Mutation, v norm.Value) *Event {
	query, _ := m.SQL()
	e := &Event{Op: m.Op().String(), Type: m.Type(), SQL: query, Time: f.now().UTC()}
	if n, ok := v.(int64); ok && !m.Op().Is(norm.OpCreate) {
		e.Affected = n
	}
	if r := m.Record(); r != nil {
		e.Key = r.Key()
		e.Values = make(map[string]any, len(r.Model().Fields()))
		for _, d := range r.Model().Fields() {
			if x, err := r.Get(d.Name); err == nil {
				e.Values[d.Name] = x
			}
		}
	}
	return e
}

// Publish writes one event.
func (f *Feed) Publish(ctx context.Context, e *Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return ErrClosed
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("changefeed: encode %s event: %w", e.Type, err)
	}
	key := e.Type
	if e.Key != nil {
		key = fmt.Sprintf("%s:%v", e.Type, e.Key)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  e.Time,
		Headers: []kafka.Header{
			{Key: "op", Value: []byte(e.Op)},
		},
	}
	if err := f.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("changefeed: write %s event: %w", e.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return f.w.Close()
}
