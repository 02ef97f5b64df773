package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smiledesk/admin-api/internal/model"
	"github.com/smiledesk/admin-api/internal/repository"
)

func (r *subscriptionRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Subscription, error) {
	query := `
		SELECT id, owner_id, status, plan, provider_customer_id, provider_sub_id,
			   current_period_end, created_at, updated_at, deleted_at
		FROM subscriptions
		WHERE owner_id = $1 AND deleted_at IS NULL
	`
	var sub model.Subscription
	err := r.db.GetContext(ctx, &sub, query, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// Upsert writes the billing provider's latest state for the owner. There is
// at most one subscription row per owner.
func (r *subscriptionRepository) Upsert(ctx context.Context, sub *model.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, owner_id, status, plan, provider_customer_id, provider_sub_id,
			current_period_end, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (owner_id) DO UPDATE
		SET status = EXCLUDED.status,
			plan = EXCLUDED.plan,
			provider_customer_id = EXCLUDED.provider_customer_id,
			provider_sub_id = EXCLUDED.provider_sub_id,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	now := time.Now()
	err := r.db.QueryRowxContext(ctx, query,
		uuid.New(),
		sub.OwnerID,
		sub.Status,
		sub.Plan,
		sub.ProviderCustomerID,
		sub.ProviderSubID,
		sub.CurrentPeriodEnd,
		now,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	sub.UpdatedAt = now
	return nil
}
