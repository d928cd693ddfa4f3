package billing

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresChecker resolves subscription status from the payment processor's
// synced tables: stripe_customers links a user to a billing customer, and
// stripe_subscriptions carries the subscription state for that customer.
type PostgresChecker struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// PostgresOption configures a PostgresChecker during construction.
type PostgresOption func(*PostgresChecker)

// WithLogger sets the logger used for lookup failures. Failures are logged
// at debug level since a missing record is the common case for free users.
func WithLogger(log *slog.Logger) PostgresOption {
	return func(c *PostgresChecker) {
		if log != nil {
			c.log = log
		}
	}
}

// NewPostgresChecker creates a checker over the given connection pool.
func NewPostgresChecker(pool *pgxpool.Pool, opts ...PostgresOption) *PostgresChecker {
	c := &PostgresChecker{
		pool: pool,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *PostgresChecker) CheckSubscriptionStatus(ctx context.Context, userID uuid.UUID) bool {
	var customerID string
	err := c.pool.QueryRow(ctx,
		`SELECT customer_id FROM stripe_customers WHERE user_id = $1`,
		userID,
	).Scan(&customerID)
	if err != nil {
		c.log.DebugContext(ctx, "no billing customer for user", "user_id", userID, "error", err)
		return false
	}
	if customerID == "" {
		return false
	}

	var status string
	err = c.pool.QueryRow(ctx,
		`SELECT status FROM stripe_subscriptions
		 WHERE customer_id = $1 AND deleted_at IS NULL`,
		customerID,
	).Scan(&status)
	if err != nil {
		c.log.DebugContext(ctx, "no subscription for customer", "customer_id", customerID, "error", err)
		return false
	}

	return status == "active"
}
