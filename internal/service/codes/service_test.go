package codes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmehdipour/sms-broker/internal/broker"
	"github.com/jmehdipour/sms-broker/internal/model"
	smsSvc "github.com/jmehdipour/sms-broker/internal/service/sms"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
	srcs  []smsSvc.Source
	next  model.Message
	err   error
}

func (f *fakeSender) Send(ctx context.Context, src smsSvc.Source, customerID int64, phone, text string) (model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.srcs = append(f.srcs, src)
	m := f.next
	m.Phone, m.Text, m.CustomerID = phone, text, customerID
	return m, f.err
}

type fakeStore struct {
	mu   sync.Mutex
	rows []model.Code
	err  error
}

func (f *fakeStore) Insert(ctx context.Context, c model.Code) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, c)
	return nil
}

func (f *fakeStore) Latest(ctx context.Context, customerID int64, phone string) (*model.Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].CustomerID == customerID && f.rows[i].Phone == phone {
			c := f.rows[i]
			return &c, nil
		}
	}
	return nil, nil
}

// fakeCooldown mimics the Redis gate against an injectable clock.
type fakeCooldown struct {
	mu    sync.Mutex
	now   func() time.Time
	until map[string]time.Time
}

func (f *fakeCooldown) Acquire(ctx context.Context, customerID int64, phone string, d time.Duration) (time.Duration, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.until == nil {
		f.until = map[string]time.Time{}
	}
	key := phone
	if t, ok := f.until[key]; ok && f.now().Before(t) {
		return t.Sub(f.now()), false, nil
	}
	f.until[key] = f.now().Add(d)
	return 0, true, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(cfg Config) (*Service, *fakeSender, *fakeStore, *clock) {
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	snd := &fakeSender{next: model.Message{ID: "01CODE", Status: model.StatusSent, StatusCode: 200}}
	store := &fakeStore{}
	svc := New(cfg, snd, store, &fakeCooldown{now: clk.now}, zap.NewNop())
	svc.now = clk.now
	svc.generate = func() (string, error) { return "123456", nil }
	return svc, snd, store, clk
}

func TestSend_IssuesAndStoresCode(t *testing.T) {
	svc, snd, store, _ := newTestService(Config{})

	msg, err := svc.Send(testContext(t), 4, "90 123 45 67")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID != "01CODE" || msg.Phone != "+998901234567" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if len(snd.texts) != 1 || snd.texts[0] != "Your verification code: 123456" {
		t.Fatalf("unexpected texts %v", snd.texts)
	}
	if snd.srcs[0] != smsSvc.SourceCodes {
		t.Fatalf("unexpected source %s", snd.srcs[0])
	}
	if len(store.rows) != 1 || store.rows[0].Code != "123456" || store.rows[0].MessageID != "01CODE" || store.rows[0].CustomerID != 4 {
		t.Fatalf("unexpected stored rows %+v", store.rows)
	}
}

func TestSend_Cooldown(t *testing.T) {
	svc, snd, _, clk := newTestService(Config{Cooldown: time.Minute})

	if _, err := svc.Send(testContext(t), 1, "+998901234567"); err != nil {
		t.Fatalf("first send: %v", err)
	}

	clk.advance(20 * time.Second)
	_, err := svc.Send(testContext(t), 1, "+998901234567")
	var cd *CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("expected cooldown error, got %v", err)
	}
	if cd.RetryAfter() != 40 {
		t.Fatalf("expected 40s left, got %d", cd.RetryAfter())
	}
	if len(snd.texts) != 1 {
		t.Fatalf("no gateway call allowed during cooldown, got %d", len(snd.texts))
	}

	// other phones are not affected
	if _, err := svc.Send(testContext(t), 1, "+998901234568"); err != nil {
		t.Fatalf("other phone: %v", err)
	}

	clk.advance(40 * time.Second)
	if _, err := svc.Send(testContext(t), 1, "+998901234567"); err != nil {
		t.Fatalf("after cooldown: %v", err)
	}
	if len(snd.texts) != 3 {
		t.Fatalf("expected 3 sends, got %d", len(snd.texts))
	}
}

func TestSend_DeveloperPhoneGetsFixedCode(t *testing.T) {
	svc, snd, store, _ := newTestService(Config{DeveloperPhone: "998995117361", DeveloperCode: "997361"})

	if _, err := svc.Send(testContext(t), 1, "+998 99 511 73 61"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.HasSuffix(snd.texts[0], "997361") || store.rows[0].Code != "997361" {
		t.Fatalf("developer phone must get the fixed code: %v %+v", snd.texts, store.rows)
	}

	if _, err := svc.Send(testContext(t), 1, "+998901234567"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if store.rows[1].Code != "123456" {
		t.Fatalf("other phones get a generated code, got %s", store.rows[1].Code)
	}
}

func TestSend_InvalidPhone(t *testing.T) {
	svc, snd, _, _ := newTestService(Config{})
	for _, p := range []string{"", "12345", "+1234"} {
		if _, err := svc.Send(testContext(t), 1, p); !errors.Is(err, ErrInvalidPhone) {
			t.Fatalf("%q: expected ErrInvalidPhone, got %v", p, err)
		}
	}
	if len(snd.texts) != 0 {
		t.Fatalf("invalid phones must not reach the gateway")
	}
}

func TestSend_TransportFailureStillStoresCode(t *testing.T) {
	svc, snd, store, _ := newTestService(Config{})
	snd.next = model.Message{ID: "01FAIL", Status: model.StatusFailed}
	snd.err = &broker.TransportError{Err: errors.New("connection refused")}

	msg, err := svc.Send(testContext(t), 1, "+998901234567")
	var te *broker.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if msg.Status != model.StatusFailed || len(store.rows) != 1 {
		t.Fatalf("code must be stored after a failed send: %+v %+v", msg, store.rows)
	}
}

func TestSend_StoreFailure(t *testing.T) {
	svc, _, store, _ := newTestService(Config{})
	store.err = errors.New("db down")

	if _, err := svc.Send(testContext(t), 1, "+998901234567"); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	svc, _, _, clk := newTestService(Config{TTL: 5 * time.Minute})

	if err := svc.Check(testContext(t), 1, "+998901234567", "123456"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("nothing issued yet: expected ErrInvalidCode, got %v", err)
	}

	if _, err := svc.Send(testContext(t), 1, "+998901234567"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := svc.Check(testContext(t), 1, "901234567", "123456"); err != nil {
		t.Fatalf("valid code rejected: %v", err)
	}
	if err := svc.Check(testContext(t), 1, "+998901234567", "654321"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("wrong code: expected ErrInvalidCode, got %v", err)
	}
	if err := svc.Check(testContext(t), 2, "+998901234567", "123456"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("other customer: expected ErrInvalidCode, got %v", err)
	}

	clk.advance(6 * time.Minute)
	if err := svc.Check(testContext(t), 1, "+998901234567", "123456"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestRandomCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		c, err := randomCode()
		if err != nil {
			t.Fatalf("random: %v", err)
		}
		if len(c) != 6 || c[0] == '0' {
			t.Fatalf("expected six digits without a leading zero, got %q", c)
		}
	}
}
