package sms

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jmehdipour/sms-broker/internal/broker"
	"github.com/jmehdipour/sms-broker/internal/model"
	"go.uber.org/zap"
)

type fakeSender struct {
	res   broker.Result
	err   error
	calls int
	after func()
}

func (f *fakeSender) Send(ctx context.Context, phone, text string) (broker.Result, error) {
	f.calls++
	if f.after != nil {
		f.after()
	}
	return f.res, f.err
}

type fakeMessages struct {
	mu        sync.Mutex
	rows      []model.Message
	insertErr error
}

func (f *fakeMessages) Insert(ctx context.Context, m model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// database/sql refuses to run on a done context
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append(f.rows, m)
	return nil
}

func (f *fakeMessages) GetByID(ctx context.Context, customerID int64, id string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.ID == id && m.CustomerID == customerID {
			return &m, nil
		}
	}
	return nil, nil
}

func TestSend_Sent(t *testing.T) {
	snd := &fakeSender{res: broker.Result{MessageID: "mxb0123456789", StatusCode: 200, Body: "OK"}}
	repo := &fakeMessages{}
	svc := New(snd, repo, zap.NewNop())

	msg, err := svc.Send(testContext(t), SourceHTTP, 7, "+998901234567", "hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Status != model.StatusSent || msg.Response != "OK" || msg.BrokerMessageID != "mxb0123456789" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Legacy() != "OK" {
		t.Fatalf("legacy view must be the body, got %q", msg.Legacy())
	}
	if snd.calls != 1 {
		t.Fatalf("expected one gateway call, got %d", snd.calls)
	}
	if len(repo.rows) != 1 || repo.rows[0].ID != msg.ID || repo.rows[0].CustomerID != 7 {
		t.Fatalf("audit row not recorded: %+v", repo.rows)
	}
}

func TestSend_Rejected(t *testing.T) {
	snd := &fakeSender{res: broker.Result{MessageID: "mxb1", StatusCode: 500, Body: "error"}}
	svc := New(snd, &fakeMessages{}, nil)

	msg, err := svc.Send(testContext(t), SourceCLI, 0, "1", "x")
	if err != nil {
		t.Fatalf("rejection is not an error: %v", err)
	}
	if msg.Status != model.StatusRejected || msg.StatusCode != 500 {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Legacy() != "error" {
		t.Fatalf("legacy view must be the body, got %q", msg.Legacy())
	}
}

func TestSend_TransportFailure(t *testing.T) {
	cause := &broker.TransportError{Err: errors.New("connection refused")}
	snd := &fakeSender{res: broker.Result{MessageID: "mxb2"}, err: cause}
	repo := &fakeMessages{}
	svc := New(snd, repo, nil)

	msg, err := svc.Send(testContext(t), SourceKafka, 0, "1", "x")
	var te *broker.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if msg.Status != model.StatusFailed || msg.Error != "connection refused" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Legacy() != "connection refused" {
		t.Fatalf("legacy view must be the error text, got %q", msg.Legacy())
	}
	if len(repo.rows) != 1 {
		t.Fatalf("failures must be recorded too")
	}
	if snd.calls != 1 {
		t.Fatalf("no retry expected, got %d calls", snd.calls)
	}
}

func TestSend_AuditFailureDoesNotChangeOutcome(t *testing.T) {
	snd := &fakeSender{res: broker.Result{MessageID: "mxb3", StatusCode: 200, Body: "OK"}}
	svc := New(snd, &fakeMessages{insertErr: errors.New("db down")}, nil)

	msg, err := svc.Send(testContext(t), SourceHTTP, 1, "1", "x")
	if err != nil {
		t.Fatalf("audit errors must not surface: %v", err)
	}
	if msg.Status != model.StatusSent {
		t.Fatalf("unexpected status %s", msg.Status)
	}
}

func TestSend_AuditSurvivesCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()

	snd := &fakeSender{
		res:   broker.Result{MessageID: "mxb4", StatusCode: 200, Body: "OK"},
		after: cancel,
	}
	repo := &fakeMessages{}
	svc := New(snd, repo, nil)

	msg, err := svc.Send(ctx, SourceHTTP, 2, "1", "x")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if ctx.Err() == nil {
		t.Fatalf("caller context should be cancelled by now")
	}
	if len(repo.rows) != 1 || repo.rows[0].ID != msg.ID {
		t.Fatalf("accepted send lost its audit row: %+v", repo.rows)
	}
}

func TestSend_WithoutAudit(t *testing.T) {
	snd := &fakeSender{res: broker.Result{StatusCode: 200, Body: "OK"}}
	svc := New(snd, nil, nil)

	if _, err := svc.Send(testContext(t), SourceCLI, 0, "1", "x"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Get(testContext(t), 0, "x"); !errors.Is(err, ErrNoAudit) {
		t.Fatalf("expected ErrNoAudit, got %v", err)
	}
}

func TestGet(t *testing.T) {
	snd := &fakeSender{res: broker.Result{StatusCode: 200, Body: "OK"}}
	svc := New(snd, &fakeMessages{}, nil)

	msg, _ := svc.Send(testContext(t), SourceHTTP, 5, "1", "x")

	got, err := svc.Get(testContext(t), 5, msg.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != msg.ID {
		t.Fatalf("unexpected row %+v", got)
	}

	if _, err := svc.Get(testContext(t), 6, msg.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other customers must not see the row, got %v", err)
	}
}
