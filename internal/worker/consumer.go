package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jmehdipour/sms-broker/internal/kafka"
	"github.com/jmehdipour/sms-broker/internal/model"
	smsSvc "github.com/jmehdipour/sms-broker/internal/service/sms"
	"go.uber.org/zap"
)

// Source is the message stream; *kafka.Consumer satisfies it.
type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// Sender is the send service; *sms.Service satisfies it.
type Sender interface {
	Send(ctx context.Context, src smsSvc.Source, customerID int64, phone, text string) (model.Message, error)
}

// DefaultSendTimeout bounds one envelope, including sends drained at shutdown.
const DefaultSendTimeout = 30 * time.Second

// Consumer:
// - fetches envelopes from Kafka,
// - sends each one through the gateway exactly once,
// - commits the offset whatever the outcome.
type Consumer struct {
	Source      Source
	Sender      Sender
	Log         *zap.Logger
	Workers     int
	SendTimeout time.Duration
}

func NewConsumer(src Source, sender Sender, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		Source:      src,
		Sender:      sender,
		Log:         log,
		Workers:     8,
		SendTimeout: DefaultSendTimeout,
	}
}

// Run starts the worker and blocks until ctx is cancelled and every
// fetched envelope has been sent and committed. Cancellation stops
// fetching only: kafka-go commits the highest offset per partition, so an
// envelope skipped while a later one commits would never be redelivered.
func (w *Consumer) Run(ctx context.Context) error {
	if w.Source == nil || w.Sender == nil {
		return errors.New("consumer: source and sender are required")
	}
	if w.Workers <= 0 {
		w.Workers = 8
	}
	if w.SendTimeout <= 0 {
		w.SendTimeout = DefaultSendTimeout
	}

	msgCh := make(chan kafka.Message, w.Workers*2)

	// Fetcher goroutine
	go func() {
		defer close(msgCh)
		for {
			m, err := w.Source.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.Log.Warn("kafka fetch failed", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(200 * time.Millisecond):
				}
				continue
			}
			// processors keep draining until msgCh is closed
			msgCh <- m
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < w.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range msgCh {
				w.handle(ctx, m)
			}
		}()
	}

	wg.Wait()
	return nil
}

// handle runs one envelope detached from ctx so shutdown neither
// cancels an in-flight send nor skips a buffered one.
func (w *Consumer) handle(ctx context.Context, m kafka.Message) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.SendTimeout)
	defer cancel()
	w.processOne(sctx, m)
}

func (w *Consumer) processOne(ctx context.Context, m kafka.Message) {
	log := w.Log.With(zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset))

	// Parse envelope: { id, user_id, sms:{phone,text} }
	var env model.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Warn("bad envelope json, skipping", zap.Error(err))
		w.commit(ctx, log, m)
		return
	}
	if strings.TrimSpace(env.SMS.Phone) == "" || strings.TrimSpace(env.SMS.Text) == "" {
		log.Warn("envelope without phone or text, skipping", zap.String("envelope_id", env.ID))
		w.commit(ctx, log, m)
		return
	}

	msg, err := w.Sender.Send(ctx, smsSvc.SourceKafka, env.UserID, env.SMS.Phone, env.SMS.Text)
	if err != nil {
		log.Warn("envelope send failed", zap.String("envelope_id", env.ID), zap.String("id", msg.ID), zap.Error(err))
	}

	// Always commit: one attempt per envelope, no redelivery.
	w.commit(ctx, log, m)
}

func (w *Consumer) commit(ctx context.Context, log *zap.Logger, m kafka.Message) {
	// ctx may have hit its send deadline; the offset still needs committing.
	if err := w.Source.Commit(context.WithoutCancel(ctx), m); err != nil {
		log.Error("kafka commit failed", zap.Error(err))
	}
}
