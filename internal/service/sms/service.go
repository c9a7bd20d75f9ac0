package sms

import (
	"context"
	"errors"
	"time"

	"github.com/jmehdipour/sms-broker/internal/broker"
	"github.com/jmehdipour/sms-broker/internal/metrics"
	"github.com/jmehdipour/sms-broker/internal/model"
	"github.com/jmehdipour/sms-broker/internal/repository"
	"github.com/jmehdipour/sms-broker/internal/util"
	"go.uber.org/zap"
)

// Source tells which ingress asked for the send.
type Source string

const (
	SourceHTTP  Source = "http"
	SourceCLI   Source = "cli"
	SourceKafka Source = "kafka"
	SourceCodes Source = "codes"
)

var (
	ErrNotFound = errors.New("message not found")
	ErrNoAudit  = errors.New("audit log not configured")
)

// Sender is the gateway call; *broker.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, phone, text string) (broker.Result, error)
}

// Service wraps a single gateway call with an audit row, metrics and
// structured logs. It never retries.
type Service struct {
	sender Sender
	msgs   repository.MessagesRepository
	log    *zap.Logger
	now    func() time.Time
}

// New builds the service. msgs may be nil, in which case nothing is recorded.
func New(sender Sender, msgs repository.MessagesRepository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		sender: sender,
		msgs:   msgs,
		log:    log,
		now:    time.Now,
	}
}

// Send posts one SMS to the gateway and returns the recorded attempt.
// The error is non-nil only for transport failures; a non-2xx gateway
// answer is reported through the returned message's status.
func (s *Service) Send(ctx context.Context, src Source, customerID int64, phone, text string) (model.Message, error) {
	started := s.now()
	res, sendErr := s.sender.Send(ctx, phone, text)
	took := s.now().Sub(started)

	msg := model.Message{
		ID:              util.NewULID(),
		CustomerID:      customerID,
		Phone:           phone,
		Text:            text,
		BrokerMessageID: res.MessageID,
		StatusCode:      res.StatusCode,
		Response:        res.Body,
		CreatedAt:       started.UTC(),
	}
	if sendErr != nil {
		msg.Status = model.StatusFailed
		msg.Error = sendErr.Error()
	} else {
		msg.Status = res.Status()
	}

	metrics.SendsTotal.WithLabelValues(msg.Status.String(), string(src)).Inc()
	metrics.SendDuration.WithLabelValues(msg.Status.String()).Observe(took.Seconds())

	fields := []zap.Field{
		zap.String("id", msg.ID),
		zap.String("message_id", msg.BrokerMessageID),
		zap.String("source", string(src)),
		zap.Int64("customer_id", customerID),
		zap.String("phone", phone),
		zap.String("status", msg.Status.String()),
		zap.Int("status_code", msg.StatusCode),
		zap.Duration("duration", took),
	}
	switch msg.Status {
	case model.StatusSent:
		s.log.Info("sms sent", fields...)
	case model.StatusRejected:
		s.log.Warn("sms rejected by gateway", append(fields, zap.String("body", msg.Response))...)
	default:
		s.log.Error("sms transport failure", append(fields, zap.Error(sendErr))...)
	}

	if s.msgs != nil {
		// the gateway call already happened; a caller going away must not drop its row
		if err := s.msgs.Insert(context.WithoutCancel(ctx), msg); err != nil {
			s.log.Error("audit insert failed", zap.String("id", msg.ID), zap.Error(err))
		}
	}

	return msg, sendErr
}

// Get returns a previously recorded send owned by customerID.
func (s *Service) Get(ctx context.Context, customerID int64, id string) (model.Message, error) {
	if s.msgs == nil {
		return model.Message{}, ErrNoAudit
	}
	m, err := s.msgs.GetByID(ctx, customerID, id)
	if err != nil {
		return model.Message{}, err
	}
	if m == nil {
		return model.Message{}, ErrNotFound
	}
	return *m, nil
}
