/**
 * @description
 * This file implements the data access layer for the dispatch-service.
 * It contains all the SQL queries and logic for interacting with the database
 * for subscriptions and meetings.
 *
 * The two constraints the concurrency model relies on live in the database
 * (see db/schema.sql): a partial unique index on meetings (meeting_date WHERE
 * is_default) and an exclusion constraint preventing overlapping subscription
 * windows per account. Violations surface here as sentinel errors.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GOALETE/dispatch-service/internal/domain"
)

var (
	ErrMeetingNotFound      = errors.New("meeting not found")
	ErrMeetingConflict      = errors.New("default meeting already exists for date")
	ErrSubscriptionConflict = errors.New("subscription window conflicts with an existing subscription")
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// Repository handles database operations for subscriptions and meetings.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// FindSubscriptionsForAccount retrieves all non-cancelled subscriptions for an
// account, identified by its normalized email.
func (r *Repository) FindSubscriptionsForAccount(ctx context.Context, email string) ([]domain.Subscription, error) {
	query := `
        SELECT id, account_email, plan_type, status, payment_state, start_date, end_date, created_at
        FROM subscriptions
        WHERE account_email = $1
          AND status <> 'cancelled'
    `
	rows, err := r.db.Query(ctx, query, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		if err := rows.Scan(
			&sub.ID, &sub.AccountEmail, &sub.PlanType, &sub.Status,
			&sub.PaymentState, &sub.StartDate, &sub.EndDate, &sub.CreatedAt,
		); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// FindActiveOnDate fetches all active subscriptions whose window covers the
// given civil date, joined with the owning account's contact details. Payment
// state filtering and per-account de-duplication happen in the app layer.
func (r *Repository) FindActiveOnDate(ctx context.Context, date time.Time) ([]domain.ActiveSubscriber, error) {
	query := `
        SELECT u.email, u.name,
               s.id, s.account_email, s.plan_type, s.status, s.payment_state,
               s.start_date, s.end_date, s.created_at
        FROM subscriptions s
        JOIN users u ON u.email = s.account_email
        WHERE s.status = 'active'
          AND s.start_date <= $1
          AND s.end_date > $1
    `
	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscribers []domain.ActiveSubscriber
	for rows.Next() {
		var sub domain.ActiveSubscriber
		if err := rows.Scan(
			&sub.Account.Email, &sub.Account.Name,
			&sub.Subscription.ID, &sub.Subscription.AccountEmail,
			&sub.Subscription.PlanType, &sub.Subscription.Status,
			&sub.Subscription.PaymentState, &sub.Subscription.StartDate,
			&sub.Subscription.EndDate, &sub.Subscription.CreatedAt,
		); err != nil {
			return nil, err
		}
		subscribers = append(subscribers, sub)
	}
	return subscribers, rows.Err()
}

// CreateSubscription inserts a new subscription. The eligibility check is
// advisory only; the insert is the final authority. The WHERE NOT EXISTS
// re-validation plus the schema's exclusion constraint convert a lost
// check-then-act race into ErrSubscriptionConflict.
func (r *Repository) CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	query := `
        INSERT INTO subscriptions (id, account_email, plan_type, status, payment_state, start_date, end_date)
        SELECT $1, $2, $3, $4, $5, $6, $7
        WHERE NOT EXISTS (
            SELECT 1 FROM subscriptions
            WHERE account_email = $2
              AND status <> 'cancelled'
              AND start_date < $7
              AND $6 < end_date
        )
        RETURNING id, account_email, plan_type, status, payment_state, start_date, end_date, created_at
    `
	var created domain.Subscription
	err := r.db.QueryRow(ctx, query,
		uuid.NewString(),
		domain.NormalizeEmail(sub.AccountEmail),
		sub.PlanType,
		sub.Status,
		sub.PaymentState,
		sub.StartDate,
		sub.EndDate,
	).Scan(
		&created.ID, &created.AccountEmail, &created.PlanType, &created.Status,
		&created.PaymentState, &created.StartDate, &created.EndDate, &created.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The NOT EXISTS guard filtered the insert out.
			return nil, ErrSubscriptionConflict
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == pgUniqueViolation || pgErr.Code == pgExclusionViolation) {
			return nil, ErrSubscriptionConflict
		}
		return nil, err
	}
	return &created, nil
}

// FindMeetingForDate retrieves the canonical meeting for a date. When both an
// admin-authored and a default meeting exist, the admin one wins (is_default
// ASC), with earliest-created as the tie-breaker.
func (r *Repository) FindMeetingForDate(ctx context.Context, date time.Time) (*domain.Meeting, error) {
	query := `
        SELECT id, meeting_date, platform, start_time, end_time, join_link,
               title, description, is_default, created_by, created_at
        FROM meetings
        WHERE meeting_date = $1
        ORDER BY is_default ASC, created_at ASC
        LIMIT 1
    `
	var m domain.Meeting
	err := r.db.QueryRow(ctx, query, date).Scan(
		&m.ID, &m.MeetingDate, &m.Platform, &m.StartTime, &m.EndTime,
		&m.JoinLink, &m.Title, &m.Description, &m.IsDefault, &m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}
	return &m, nil
}

// CreateDefaultMeeting persists an auto-created meeting for a date. A second
// concurrent creator loses to the partial unique index and gets
// ErrMeetingConflict, which the resolver recovers from by re-fetching.
func (r *Repository) CreateDefaultMeeting(ctx context.Context, m *domain.Meeting) (*domain.Meeting, error) {
	query := `
        INSERT INTO meetings (id, meeting_date, platform, start_time, end_time, join_link,
                              title, description, is_default, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9)
        RETURNING id, meeting_date, platform, start_time, end_time, join_link,
                  title, description, is_default, created_by, created_at
    `
	var created domain.Meeting
	err := r.db.QueryRow(ctx, query,
		uuid.NewString(), m.MeetingDate, m.Platform, m.StartTime, m.EndTime,
		m.JoinLink, m.Title, m.Description, m.CreatedBy,
	).Scan(
		&created.ID, &created.MeetingDate, &created.Platform, &created.StartTime,
		&created.EndTime, &created.JoinLink, &created.Title, &created.Description,
		&created.IsDefault, &created.CreatedBy, &created.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrMeetingConflict
		}
		return nil, err
	}
	return &created, nil
}
