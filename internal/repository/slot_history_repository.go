package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/booking-service/internal/domain"
)

// SlotHistoryRepository stores audit entries.
type SlotHistoryRepository interface {
	Create(ctx context.Context, history *domain.SlotHistory) error
	ListBySlot(ctx context.Context, slotID string) ([]domain.SlotHistory, error)
}

type slotHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewSlotHistoryRepository builds repository.
func NewSlotHistoryRepository(pool *pgxpool.Pool) SlotHistoryRepository {
	return &slotHistoryRepository{pool: pool}
}

func (r *slotHistoryRepository) Create(ctx context.Context, history *domain.SlotHistory) error {
	const query = `
        INSERT INTO slot_history (slot_id, changed_by_role, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.SlotID,
		history.ChangedByRole,
		history.ChangedByID,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *slotHistoryRepository) ListBySlot(ctx context.Context, slotID string) ([]domain.SlotHistory, error) {
	const query = `
        SELECT id, slot_id, changed_by_role, changed_by_id, change_type, old_value, new_value, created_at
        FROM slot_history WHERE slot_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SlotHistory
	for rows.Next() {
		var history domain.SlotHistory
		if err := rows.Scan(
			&history.ID,
			&history.SlotID,
			&history.ChangedByRole,
			&history.ChangedByID,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
