package models

import "time"

type Subscription struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	PlanType      string     `json:"plan_type"`
	AmountPaid    float64    `json:"amount_paid"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	TransactionID *string    `json:"transaction_id,omitempty"`
	IsActive      bool       `json:"is_active"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
