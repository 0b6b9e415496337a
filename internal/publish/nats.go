package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/layoutstate/internal/config"
	"git.home.luguber.info/inful/layoutstate/internal/events"
	ferrors "git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/layout"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
	"git.home.luguber.info/inful/layoutstate/internal/retry"
)

// NATSPublisher sends state changes to JetStream and mirrors the latest state
// of each document into a KeyValue bucket.
type NATSPublisher struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	kv       jetstream.KeyValue
	subject  string
	kvBucket string
	logger   *slog.Logger
}

// NewNATSPublisher connects to NATS and makes sure the stream and bucket exist.
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if !cfg.Enabled {
		return nil, ferrors.ConfigError("nats publishing is disabled").WithContext("reason", "nats_disabled").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("layoutstate"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", cfg.URL).
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to create JetStream context").Build()
	}

	p := &NATSPublisher{
		conn:     conn,
		js:       js,
		subject:  cfg.Subject,
		kvBucket: cfg.KVBucket,
		logger:   logger,
	}
	if err := p.init(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("NATS publisher initialized",
		slog.String("url", cfg.URL),
		logfields.Subject(cfg.Subject),
		slog.String("kv_bucket", cfg.KVBucket))
	return p, nil
}

func (p *NATSPublisher) init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:              StreamName(p.subject),
		Description:       "Layout state changes",
		Subjects:          StreamSubjects(p.subject),
		MaxMsgsPerSubject: 1000,
		Duplicates:        2 * time.Minute,
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to ensure state stream").
			WithContext("subject", p.subject).
			Build()
	}

	kv, err := p.js.KeyValue(ctx, p.kvBucket)
	if err == nil {
		p.kv = kv
		return nil
	}
	kv, err = p.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      p.kvBucket,
		Description: "Latest layout state per document",
		History:     1,
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to create KV bucket").
			WithContext("bucket", p.kvBucket).
			Build()
	}
	p.kv = kv
	p.logger.Info("Created KV bucket for layout state", slog.String("bucket", p.kvBucket))
	return nil
}

// Name implements Sink.
func (p *NATSPublisher) Name() string { return "nats" }

// Publish implements Sink.
func (p *NATSPublisher) Publish(ctx context.Context, evt events.StateChanged) error {
	data, err := Encode(evt)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to marshal state change: %w", err))
	}

	subject := Subject(p.subject, evt.Document)
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(MsgID(evt))); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to publish state change").
			WithContext("subject", subject).
			Build()
	}
	if _, err := p.kv.Put(ctx, KVKey(evt.Document), data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to store latest state").
			WithContext("bucket", p.kvBucket).
			Build()
	}

	p.logger.Debug("Published state change",
		logfields.Subject(subject),
		logfields.Revision(evt.Revision),
		logfields.Hash(evt.State.Hash()))
	return nil
}

// Latest returns the last state stored for document.
func (p *NATSPublisher) Latest(ctx context.Context, document string) (layout.State, bool, error) {
	entry, err := p.kv.Get(ctx, KVKey(document))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return layout.State{}, false, nil
		}
		return layout.State{}, false, ferrors.WrapError(err, ferrors.CategoryPersistence, "failed to read latest state").Build()
	}
	msg, err := Decode(entry.Value())
	if err != nil {
		return layout.State{}, false, fmt.Errorf("failed to unmarshal latest state: %w", err)
	}
	return msg.State.State(), true, nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
