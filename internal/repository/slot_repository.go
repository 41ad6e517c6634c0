package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/booking-service/internal/domain"
)

// SlotFilter captures listing parameters. Soft-deleted rows are excluded
// unless IncludeDeleted is set.
type SlotFilter struct {
	ProviderID     *string
	RequesterID    *string
	Statuses       []domain.SlotStatus
	DateFrom       *time.Time
	DateTo         *time.Time
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// DayKey identifies one provider calendar day, the unit of publish locking.
type DayKey struct {
	ProviderID string
	Date       time.Time
}

func (k DayKey) String() string {
	return k.ProviderID + "|" + k.Date.Format(domain.DateLayout)
}

// SlotQuerier is the slice of slot persistence available inside a day-locked
// transaction as well as on the plain pool.
type SlotQuerier interface {
	ListActiveForDay(ctx context.Context, providerID string, date time.Time, excludeID string) ([]domain.TimeSlot, error)
	CreateBatch(ctx context.Context, slots []*domain.TimeSlot) error
	Update(ctx context.Context, slot *domain.TimeSlot) error
}

// SlotRepository encapsulates time slot persistence.
type SlotRepository interface {
	SlotQuerier
	GetByID(ctx context.Context, id string) (*domain.TimeSlot, error)
	ListWithFilter(ctx context.Context, filter SlotFilter) ([]domain.TimeSlot, error)
	SoftDelete(ctx context.Context, slot *domain.TimeSlot) error
	// WithDayLocks runs fn inside a serializable transaction holding
	// provider+date advisory locks, closing the check-then-insert race
	// between concurrent publishes for the same provider day.
	WithDayLocks(ctx context.Context, keys []DayKey, fn func(ctx context.Context, q SlotQuerier) error) error
}

type dbtx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type slotQueries struct {
	db dbtx
}

type slotRepository struct {
	slotQueries
	pool *pgxpool.Pool
}

// NewSlotRepository instantiates repository.
func NewSlotRepository(pool *pgxpool.Pool) SlotRepository {
	return &slotRepository{slotQueries: slotQueries{db: pool}, pool: pool}
}

const slotColumns = `id, provider_id, requester_id, slot_date, start_minute, end_minute, status, note,
               created_at, created_by, created_by_role, updated_at, updated_by, updated_by_role,
               deleted_at, deleted_by, deleted_by_role`

func (q *slotQueries) CreateBatch(ctx context.Context, slots []*domain.TimeSlot) error {
	const query = `
        INSERT INTO time_slots (provider_id, requester_id, slot_date, start_minute, end_minute, status, note,
                                created_at, created_by, created_by_role, updated_at, updated_by, updated_by_role)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id`
	for _, slot := range slots {
		if err := q.db.QueryRow(ctx, query,
			slot.ProviderID,
			slot.RequesterID,
			slot.Date,
			slot.StartTime,
			slot.EndTime,
			slot.Status,
			slot.Note,
			slot.CreatedAt,
			slot.CreatedBy,
			slot.CreatedByRole,
			slot.UpdatedAt,
			slot.UpdatedBy,
			slot.UpdatedByRole,
		).Scan(&slot.ID); err != nil {
			return err
		}
	}
	return nil
}

func (q *slotQueries) Update(ctx context.Context, slot *domain.TimeSlot) error {
	const query = `
        UPDATE time_slots SET requester_id=$1, slot_date=$2, start_minute=$3, end_minute=$4,
            status=$5, note=$6, updated_at=$7, updated_by=$8, updated_by_role=$9
        WHERE id=$10 AND deleted_at IS NULL`
	cmd, err := q.db.Exec(ctx, query,
		slot.RequesterID,
		slot.Date,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.Note,
		slot.UpdatedAt,
		slot.UpdatedBy,
		slot.UpdatedByRole,
		slot.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (q *slotQueries) ListActiveForDay(ctx context.Context, providerID string, date time.Time, excludeID string) ([]domain.TimeSlot, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM time_slots
        WHERE provider_id=$1 AND slot_date=$2 AND deleted_at IS NULL AND status = ANY($3)`, slotColumns)
	args := []any{providerID, domain.NormalizeDate(date), statusStrings(domain.ActiveStatuses)}
	if excludeID != "" {
		args = append(args, excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	query += " ORDER BY start_minute ASC"

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows)
}

func (r *slotRepository) GetByID(ctx context.Context, id string) (*domain.TimeSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM time_slots WHERE id=$1`, slotColumns)
	var slot domain.TimeSlot
	if err := scanSlot(r.pool.QueryRow(ctx, query, id), &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) ListWithFilter(ctx context.Context, filter SlotFilter) ([]domain.TimeSlot, error) {
	base := fmt.Sprintf(`SELECT %s FROM time_slots`, slotColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.IncludeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}
	if filter.ProviderID != nil {
		args = append(args, *filter.ProviderID)
		clauses = append(clauses, fmt.Sprintf("provider_id=$%d", len(args)))
	}
	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, statusStrings(filter.Statuses))
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, domain.NormalizeDate(*filter.DateFrom))
		clauses = append(clauses, fmt.Sprintf("slot_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, domain.NormalizeDate(*filter.DateTo))
		clauses = append(clauses, fmt.Sprintf("slot_date <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY slot_date ASC, start_minute ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows)
}

func (r *slotRepository) SoftDelete(ctx context.Context, slot *domain.TimeSlot) error {
	const query = `
        UPDATE time_slots SET deleted_at=$1, deleted_by=$2, deleted_by_role=$3
        WHERE id=$4 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query,
		slot.DeletedAt,
		slot.DeletedBy,
		slot.DeletedByRole,
		slot.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *slotRepository) WithDayLocks(ctx context.Context, keys []DayKey, fn func(ctx context.Context, q SlotQuerier) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Locks are taken in a stable order so two publishes touching the same
	// days cannot deadlock.
	sorted := append([]DayKey{}, keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })
	for _, key := range sorted {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key.String()); err != nil {
			return err
		}
	}

	if err := fn(ctx, &slotQueries{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func statusStrings(statuses []domain.SlotStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}

func scanSlot(row pgx.Row, slot *domain.TimeSlot) error {
	return row.Scan(
		&slot.ID,
		&slot.ProviderID,
		&slot.RequesterID,
		&slot.Date,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&slot.Note,
		&slot.CreatedAt,
		&slot.CreatedBy,
		&slot.CreatedByRole,
		&slot.UpdatedAt,
		&slot.UpdatedBy,
		&slot.UpdatedByRole,
		&slot.DeletedAt,
		&slot.DeletedBy,
		&slot.DeletedByRole,
	)
}

func scanSlots(rows pgx.Rows) ([]domain.TimeSlot, error) {
	var result []domain.TimeSlot
	for rows.Next() {
		var slot domain.TimeSlot
		if err := scanSlot(rows, &slot); err != nil {
			return nil, err
		}
		result = append(result, slot)
	}
	return result, rows.Err()
}
