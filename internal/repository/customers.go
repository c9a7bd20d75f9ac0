package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmehdipour/sms-broker/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type CustomersRepository interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Customer, error)
}

type CustomersRepositoryImpl struct {
	db *sqlx.DB
}

func NewCustomersRepository(db *sqlx.DB) *CustomersRepositoryImpl {
	return &CustomersRepositoryImpl{db: db}
}

var _ CustomersRepository = (*CustomersRepositoryImpl)(nil)

func (r *CustomersRepositoryImpl) GetByAPIKey(ctx context.Context, apiKey string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.GetContext(ctx, &c, `
		SELECT id, name, api_key, status, created_at, updated_at
		  FROM customers
		 WHERE api_key = ? LIMIT 1
	`, apiKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CachedCustomers is a read-through Redis cache in front of another
// CustomersRepository. Only found customers are cached; Redis errors
// fall through to the inner repository. A status change in MySQL is
// seen only after the entry expires (ttl).
type CachedCustomers struct {
	inner  CustomersRepository
	rds    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewCachedCustomers(inner CustomersRepository, rds *redis.Client, ttl time.Duration) *CachedCustomers {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedCustomers{inner: inner, rds: rds, ttl: ttl, prefix: "smsbroker:apikey:"}
}

var _ CustomersRepository = (*CachedCustomers)(nil)

func (r *CachedCustomers) GetByAPIKey(ctx context.Context, apiKey string) (*model.Customer, error) {
	key := r.cacheKey(apiKey)

	if raw, err := r.rds.Get(ctx, key).Bytes(); err == nil {
		var c model.Customer
		if json.Unmarshal(raw, &c) == nil {
			return &c, nil
		}
	}

	c, err := r.inner.GetByAPIKey(ctx, apiKey)
	if err != nil || c == nil {
		return c, err
	}

	if b, err := json.Marshal(c); err == nil {
		_ = r.rds.Set(ctx, key, b, r.ttl).Err()
	}
	return c, nil
}

// cacheKey keeps raw API keys out of Redis.
func (r *CachedCustomers) cacheKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return r.prefix + hex.EncodeToString(sum[:])
}
