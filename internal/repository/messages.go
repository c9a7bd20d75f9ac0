package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmehdipour/sms-broker/internal/model"
	"github.com/jmoiron/sqlx"
)

// MessagesRepository is the append-only audit log of gateway sends.
type MessagesRepository interface {
	Insert(ctx context.Context, m model.Message) error
	GetByID(ctx context.Context, customerID int64, id string) (*model.Message, error)
}

type MessagesRepositoryImpl struct {
	db *sqlx.DB
}

func NewMessagesRepository(db *sqlx.DB) *MessagesRepositoryImpl {
	return &MessagesRepositoryImpl{db: db}
}

var _ MessagesRepository = (*MessagesRepositoryImpl)(nil)

// Insert writes one send attempt. Rows are never updated afterwards.
func (r *MessagesRepositoryImpl) Insert(ctx context.Context, m model.Message) error {
	const q = `
		INSERT INTO messages
		    (id, customer_id, phone, text, broker_msg_id, status, status_code, response, error, created_at)
		VALUES
		    (:id, :customer_id, :phone, :text, :broker_msg_id, :status, :status_code, :response, :error, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, q, m)
	return err
}

// GetByID returns nil, nil when the row does not exist or belongs to another customer.
func (r *MessagesRepositoryImpl) GetByID(ctx context.Context, customerID int64, id string) (*model.Message, error) {
	var m model.Message
	err := r.db.GetContext(ctx, &m, `
		SELECT id, customer_id, phone, text, broker_msg_id, status, status_code, response, error, created_at
		  FROM messages
		 WHERE id = ? AND customer_id = ?
		 LIMIT 1
	`, id, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
