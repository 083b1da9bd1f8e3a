package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/theatre-ticketing/internal/model"
)

// Inventory answers how many admissions have been sold.  Both methods sum
// the quantity column, never row counts, and report 0 for a date or type
// with no rows.
type Inventory interface {
	SoldByType(ctx context.Context, ticketType, showDate string) (int, error)
	SoldTotal(ctx context.Context, showDate string) (int, error)
}

// ReservationTx is the unit of work handed to the callback of Reserve.
// Reads through it see every registration committed for the locked date.
type ReservationTx interface {
	Inventory
	Insert(ctx context.Context, t *model.Ticket) error
}

// TicketRepo provides access to the tickets table and the per-date lock
// rows that serialize registrations.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying handle.
func (r *TicketRepo) DB() *sql.DB { return r.db }

// queryer is the subset shared by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const ticketColumns = `ticket_id, name, email, phone, ticket_type, show_date, quantity,
       receipt_data, receipt_filename, payment_status, checked_in, checked_in_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(s rowScanner) (*model.Ticket, error) {
	var (
		t           model.Ticket
		receipt     sql.NullString
		receiptName sql.NullString
		checkedAt   sql.NullTime
	)
	if err := s.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.TicketType, &t.ShowDate, &t.Quantity,
		&receipt, &receiptName, &t.PaymentStatus, &t.CheckedIn, &checkedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	if receipt.Valid {
		v := receipt.String
		t.ReceiptData = &v
	}
	if receiptName.Valid {
		v := receiptName.String
		t.ReceiptFilename = &v
	}
	if checkedAt.Valid {
		v := checkedAt.Time.UTC()
		t.CheckedInAt = &v
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func soldByType(ctx context.Context, q queryer, ticketType, showDate string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM tickets WHERE ticket_type = ? AND show_date = ?`,
		ticketType, showDate).Scan(&n)
	return n, err
}

func soldTotal(ctx context.Context, q queryer, showDate string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM tickets WHERE show_date = ?`,
		showDate).Scan(&n)
	return n, err
}

// SoldByType sums the quantity of tickets of one type on one date.
func (r *TicketRepo) SoldByType(ctx context.Context, ticketType, showDate string) (int, error) {
	return soldByType(ctx, r.db, ticketType, showDate)
}

// SoldTotal sums the quantity of all tickets on one date.
func (r *TicketRepo) SoldTotal(ctx context.Context, showDate string) (int, error) {
	return soldTotal(ctx, r.db, showDate)
}

// Reserve runs fn inside a transaction holding the lock row for showDate.
// Every registration for the same date passes through this lock, so the
// sums read by fn cannot change until the transaction ends.  The
// transaction commits when fn returns nil and rolls back otherwise; the
// error from fn is returned unchanged.
func (r *TicketRepo) Reserve(ctx context.Context, showDate string, fn func(ReservationTx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin reservation: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	// The upsert takes an exclusive lock on the date row whether it inserts
	// or hits the existing key, so first registrations for a new date queue
	// instead of upgrading shared locks into a deadlock.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO show_date_locks (show_date) VALUES (?) ON DUPLICATE KEY UPDATE show_date = show_date`,
		showDate); err != nil {
		return fmt.Errorf("lock show date: %w", err)
	}
	if err := fn(&reservationTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reservation: %w", err)
	}
	committed = true
	return nil
}

type reservationTx struct {
	tx *sql.Tx
}

func (t *reservationTx) SoldByType(ctx context.Context, ticketType, showDate string) (int, error) {
	return soldByType(ctx, t.tx, ticketType, showDate)
}

func (t *reservationTx) SoldTotal(ctx context.Context, showDate string) (int, error) {
	return soldTotal(ctx, t.tx, showDate)
}

// Insert writes a new ticket.  CreatedAt is set by the caller.
func (t *reservationTx) Insert(ctx context.Context, tk *model.Ticket) error {
	return insertTicket(ctx, t.tx, tk)
}

func insertTicket(ctx context.Context, q queryer, t *model.Ticket) error {
	const ins = `INSERT INTO tickets (ticket_id, name, email, phone, ticket_type, show_date, quantity,
                 receipt_data, receipt_filename, payment_status, checked_in, checked_in_at, created_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, ins,
		t.ID, t.Name, t.Email, t.Phone, t.TicketType, t.ShowDate, t.Quantity,
		t.ReceiptData, t.ReceiptFilename, t.PaymentStatus, t.CheckedIn, t.CheckedInAt, t.CreatedAt)
	return err
}

// GetByID loads a ticket.  ErrTicketNotFound is returned when it does not
// exist.
func (r *TicketRepo) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = ?`, id)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns every ticket, newest first.
func (r *TicketRepo) List(ctx context.Context) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes the editable columns of t.  The ticket must exist; MySQL
// reports zero affected rows for an unchanged row so the count is not
// checked.
func (r *TicketRepo) Update(ctx context.Context, t *model.Ticket) error {
	const q = `UPDATE tickets SET name = ?, email = ?, phone = ?, ticket_type = ?, show_date = ?,
               quantity = ?, payment_status = ? WHERE ticket_id = ?`
	_, err := r.db.ExecContext(ctx, q,
		t.Name, t.Email, t.Phone, t.TicketType, t.ShowDate, t.Quantity, t.PaymentStatus, t.ID)
	return err
}

// Delete removes a ticket.  ErrTicketNotFound is returned when no row
// was deleted.
func (r *TicketRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE ticket_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// MarkCheckedIn performs the one-way check-in transition.  The update is
// conditional on checked_in being false, so of two concurrent scans only
// one succeeds.  On success the updated ticket is returned.  When the
// ticket had already been checked in, the stored ticket is returned
// together with ErrAlreadyCheckedIn.
func (r *TicketRepo) MarkCheckedIn(ctx context.Context, id string, at time.Time) (*model.Ticket, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET checked_in = TRUE, checked_in_at = ? WHERE ticket_id = ? AND checked_in = FALSE`,
		at.UTC(), id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return t, ErrAlreadyCheckedIn
	}
	return t, nil
}

// SalesRow aggregates sold quantities for one (date, type) pair.
type SalesRow struct {
	ShowDate     string
	TicketType   string
	Quantity     int
	WithReceipts int
}

// SalesBreakdown groups all tickets by show date and type.
func (r *TicketRepo) SalesBreakdown(ctx context.Context) ([]SalesRow, error) {
	const q = `SELECT show_date, ticket_type, COALESCE(SUM(quantity), 0),
                      COALESCE(SUM(CASE WHEN payment_status = ? THEN quantity ELSE 0 END), 0)
               FROM tickets
               GROUP BY show_date, ticket_type
               ORDER BY show_date, ticket_type`
	rows, err := r.db.QueryContext(ctx, q, model.PaymentReceiptUploaded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SalesRow{}
	for rows.Next() {
		var s SalesRow
		if err := rows.Scan(&s.ShowDate, &s.TicketType, &s.Quantity, &s.WithReceipts); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
