package database

import (
	"context"
	"errors"

	"holabox/internal/models"

	"github.com/jackc/pgx/v5"
)

const subscriptionColumns = `
	id, user_id, plan_type, amount_paid, payment_method, transaction_id,
	is_active, start_date, end_date, created_at, updated_at
`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PlanType,
		&sub.AmountPaid,
		&sub.PaymentMethod,
		&sub.TransactionID,
		&sub.IsActive,
		&sub.StartDate,
		&sub.EndDate,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (q *Queries) CreateSubscription(ctx context.Context, userID int64, planType string) (*models.Subscription, error) {
	query := `
		INSERT INTO subscriptions (user_id, plan_type)
		VALUES ($1, $2)
		RETURNING ` + subscriptionColumns

	return scanSubscription(q.db.QueryRow(ctx, query, userID, planType))
}

func (q *Queries) GetSubscriptionForUser(ctx context.Context, userID int64) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1`
	return scanSubscription(q.db.QueryRow(ctx, query, userID))
}

type UpgradeSubscriptionParams struct {
	UserID        int64
	PlanType      string
	AmountPaid    float64
	PaymentMethod string
	TransactionID string
}

// UpgradeSubscription rewrites the user's subscription row. Run it inside
// ExecTx together with SetUserPlan so the subscription and the quota
// source of truth cannot diverge.
func (q *Queries) UpgradeSubscription(ctx context.Context, arg UpgradeSubscriptionParams) (*models.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET plan_type = $1,
			amount_paid = $2,
			payment_method = $3,
			transaction_id = $4,
			is_active = TRUE,
			start_date = NOW(),
			end_date = NOW() + INTERVAL '30 days',
			updated_at = NOW()
		WHERE user_id = $5
		RETURNING ` + subscriptionColumns

	return scanSubscription(q.db.QueryRow(ctx, query,
		arg.PlanType,
		arg.AmountPaid,
		arg.PaymentMethod,
		arg.TransactionID,
		arg.UserID,
	))
}

func (q *Queries) SetUserPlan(ctx context.Context, userID int64, planType string) error {
	query := `UPDATE users SET plan_type = $1, updated_at = NOW() WHERE id = $2`
	_, err := q.db.Exec(ctx, query, planType, userID)
	return err
}
