package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmehdipour/sms-broker/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// CodesRepository stores issued verification codes.
type CodesRepository interface {
	Insert(ctx context.Context, c model.Code) error
	// Latest returns nil, nil when nothing was issued to phone.
	Latest(ctx context.Context, customerID int64, phone string) (*model.Code, error)
}

type CodesRepositoryImpl struct {
	db *sqlx.DB
}

func NewCodesRepository(db *sqlx.DB) *CodesRepositoryImpl {
	return &CodesRepositoryImpl{db: db}
}

var _ CodesRepository = (*CodesRepositoryImpl)(nil)

func (r *CodesRepositoryImpl) Insert(ctx context.Context, c model.Code) error {
	const q = `
		INSERT INTO codes (customer_id, phone, code, message_id, created_at)
		VALUES (:customer_id, :phone, :code, :message_id, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, q, c)
	return err
}

func (r *CodesRepositoryImpl) Latest(ctx context.Context, customerID int64, phone string) (*model.Code, error) {
	const q = `
		SELECT id, customer_id, phone, code, message_id, created_at
		FROM codes
		WHERE customer_id = ? AND phone = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var c model.Code
	if err := r.db.GetContext(ctx, &c, q, customerID, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Cooldown is a per-phone resend gate.
type Cooldown interface {
	// Acquire opens the gate for d and returns 0, true, or returns how long
	// the current gate still holds.
	Acquire(ctx context.Context, customerID int64, phone string, d time.Duration) (time.Duration, bool, error)
}

// RedisCooldown holds the gate as a Redis key with a TTL; SET NX makes
// concurrent requests for the same phone race on a single key.
type RedisCooldown struct {
	rds    *redis.Client
	prefix string
}

func NewRedisCooldown(rds *redis.Client) *RedisCooldown {
	return &RedisCooldown{rds: rds, prefix: "smsbroker:codes:cooldown:"}
}

var _ Cooldown = (*RedisCooldown)(nil)

func (c *RedisCooldown) Acquire(ctx context.Context, customerID int64, phone string, d time.Duration) (time.Duration, bool, error) {
	key := c.key(customerID, phone)

	ok, err := c.rds.SetNX(ctx, key, 1, d).Result()
	if err != nil {
		return 0, false, fmt.Errorf("cooldown setnx: %w", err)
	}
	if ok {
		return 0, true, nil
	}

	left, err := c.rds.PTTL(ctx, key).Result()
	if err != nil {
		return 0, false, fmt.Errorf("cooldown pttl: %w", err)
	}
	// key expired between the two calls
	if left <= 0 {
		left = time.Second
	}
	return left, false, nil
}

func (c *RedisCooldown) key(customerID int64, phone string) string {
	return c.prefix + strconv.FormatInt(customerID, 10) + ":" + phone
}
