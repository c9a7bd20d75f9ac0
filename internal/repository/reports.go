package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmehdipour/sms-broker/internal/model"
	"github.com/jmoiron/sqlx"
)

// ReportsTable is the ClickHouse view of the audit log, created by `migrate`.
const ReportsTable = "smsbroker.messages"

// ReportFilter narrows one customer's audit log. Zero fields match everything.
type ReportFilter struct {
	CustomerID int64
	Phone      string
	Status     model.MessageStatus
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// StatusCount is one row of a per-status breakdown.
type StatusCount struct {
	Status model.MessageStatus `db:"status" json:"status"`
	Count  uint64              `db:"total"  json:"count"`
}

type ReportsRepository interface {
	List(ctx context.Context, f ReportFilter) ([]model.Message, error)
	CountByStatus(ctx context.Context, f ReportFilter) ([]StatusCount, error)
}

type ReportsRepositoryImpl struct {
	ch *sqlx.DB
}

func NewReportsRepository(ch *sqlx.DB) *ReportsRepositoryImpl {
	return &ReportsRepositoryImpl{ch: ch}
}

var _ ReportsRepository = (*ReportsRepositoryImpl)(nil)

func (r *ReportsRepositoryImpl) List(ctx context.Context, f ReportFilter) ([]model.Message, error) {
	where, args := f.where()
	limit, offset := f.page()

	q := `SELECT id, customer_id, phone, text, broker_msg_id, status, status_code, response, error, created_at
		FROM ` + ReportsTable + where + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	var rows []model.Message
	if err := r.ch.SelectContext(ctx, &rows, q, append(args, limit, offset)...); err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByStatus ignores f.Status, Limit and Offset.
func (r *ReportsRepositoryImpl) CountByStatus(ctx context.Context, f ReportFilter) ([]StatusCount, error) {
	f.Status = ""
	where, args := f.where()

	q := `SELECT status, count() AS total
		FROM ` + ReportsTable + where + `
		GROUP BY status
		ORDER BY status`

	var rows []StatusCount
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (f ReportFilter) where() (string, []any) {
	conds := []string{"customer_id = ?"}
	args := []any{f.CustomerID}

	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status.String())
	}
	if f.Phone != "" {
		conds = append(conds, "phone = ?")
		args = append(args, f.Phone)
	}
	if !f.From.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, "created_at < ?")
		args = append(args, f.To.UTC())
	}

	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}

func (f ReportFilter) page() (int, int) {
	limit, offset := f.Limit, f.Offset
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
