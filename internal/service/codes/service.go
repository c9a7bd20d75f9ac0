package codes

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/jmehdipour/sms-broker/internal/model"
	"github.com/jmehdipour/sms-broker/internal/repository"
	smsSvc "github.com/jmehdipour/sms-broker/internal/service/sms"
	"github.com/jmehdipour/sms-broker/internal/util"
	"go.uber.org/zap"
)

const (
	DefaultCooldown = 60 * time.Second
	DefaultTemplate = "Your verification code: %s"

	codeMin = 100000
	codeMax = 999999
)

var (
	ErrInvalidPhone = errors.New("invalid phone number")
	ErrInvalidCode  = errors.New("invalid code")
	ErrCodeExpired  = errors.New("code expired")
	ErrStore        = errors.New("code store failed")
)

// + and 12 digits, the length of an Uzbek E.164 number
var phoneRe = regexp.MustCompile(`^\+\d{12}$`)

// CooldownError is returned while an earlier code for the phone is still fresh.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("try again in %d seconds", e.RetryAfter())
}

// RetryAfter is Remaining rounded up to whole seconds.
func (e *CooldownError) RetryAfter() int {
	s := int((e.Remaining + time.Second - 1) / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}

// Sender is the SMS send service; *sms.Service satisfies it.
type Sender interface {
	Send(ctx context.Context, src smsSvc.Source, customerID int64, phone, text string) (model.Message, error)
}

type Config struct {
	Cooldown time.Duration
	// TTL bounds how long a code can be checked; zero means no expiry.
	TTL time.Duration
	// DeveloperPhone always receives DeveloperCode instead of a random one.
	DeveloperPhone string
	DeveloperCode  string
	// Template is a fmt format with a single %s for the code.
	Template string
}

type Service struct {
	cfg      Config
	sender   Sender
	store    repository.CodesRepository
	cooldown repository.Cooldown
	log      *zap.Logger
	now      func() time.Time
	generate func() (string, error)
}

func New(cfg Config, sender Sender, store repository.CodesRepository, cooldown repository.Cooldown, log *zap.Logger) *Service {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Template == "" {
		cfg.Template = DefaultTemplate
	}
	if cfg.DeveloperPhone != "" {
		cfg.DeveloperPhone = util.NormalizePhone(cfg.DeveloperPhone)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		cfg:      cfg,
		sender:   sender,
		store:    store,
		cooldown: cooldown,
		log:      log,
		now:      time.Now,
		generate: randomCode,
	}
}

// Send issues a fresh code to phone and texts it through the gateway.
// The code is stored and the cooldown started whatever the gateway
// answers; a transport failure is returned alongside the recorded message.
func (s *Service) Send(ctx context.Context, customerID int64, phone string) (model.Message, error) {
	phone, err := normalize(phone)
	if err != nil {
		return model.Message{}, err
	}

	left, ok, err := s.cooldown.Acquire(ctx, customerID, phone, s.cfg.Cooldown)
	if err != nil {
		return model.Message{}, err
	}
	if !ok {
		return model.Message{}, &CooldownError{Remaining: left}
	}

	code, err := s.codeFor(phone)
	if err != nil {
		return model.Message{}, err
	}

	msg, sendErr := s.sender.Send(ctx, smsSvc.SourceCodes, customerID, phone, fmt.Sprintf(s.cfg.Template, code))

	row := model.Code{
		CustomerID: customerID,
		Phone:      phone,
		Code:       code,
		MessageID:  msg.ID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Insert(context.WithoutCancel(ctx), row); err != nil {
		s.log.Error("code insert failed", zap.Int64("customer_id", customerID), zap.String("phone", phone), zap.Error(err))
		return msg, errors.Join(ErrStore, err)
	}

	s.log.Info("code issued",
		zap.Int64("customer_id", customerID),
		zap.String("phone", phone),
		zap.String("id", msg.ID),
		zap.String("status", msg.Status.String()),
	)
	return msg, sendErr
}

// Check compares code with the latest one issued to phone.
func (s *Service) Check(ctx context.Context, customerID int64, phone, code string) error {
	phone, err := normalize(phone)
	if err != nil {
		return err
	}

	latest, err := s.store.Latest(ctx, customerID, phone)
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	if latest == nil {
		return ErrInvalidCode
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(latest.Code)) != 1 {
		return ErrInvalidCode
	}
	if s.cfg.TTL > 0 && s.now().Sub(latest.CreatedAt) > s.cfg.TTL {
		return ErrCodeExpired
	}
	return nil
}

func (s *Service) codeFor(phone string) (string, error) {
	if s.cfg.DeveloperPhone != "" && phone == s.cfg.DeveloperPhone && s.cfg.DeveloperCode != "" {
		return s.cfg.DeveloperCode, nil
	}
	code, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return code, nil
}

func normalize(phone string) (string, error) {
	phone = util.NormalizePhone(phone)
	if !phoneRe.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

// randomCode returns a uniformly random six-digit code.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
