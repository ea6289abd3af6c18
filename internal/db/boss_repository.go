package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BossStateRow represents a row from boss_state.
type BossStateRow struct {
	BossID      int64
	Name        string
	EncounterID uuid.UUID
	Behavior    string
	Status      int16
	PosX        float64
	PosY        float64
	PosZ        float64
	Health      float64
	MaxHealth   float64
	UpdatedAt   time.Time
}

// BossTransitionRow represents a row from boss_transitions.
type BossTransitionRow struct {
	ID           int64
	BossID       int64
	EncounterID  uuid.UUID
	FromBehavior string
	ToBehavior   string
	Requested    string
	Reason       string
	Tick         int64
	At           time.Time
}

// BossRepository provides CRUD for boss state and its transition history.
type BossRepository struct {
	pool *pgxpool.Pool
}

// NewBossRepository creates a new BossRepository.
func NewBossRepository(pool *pgxpool.Pool) *BossRepository {
	return &BossRepository{pool: pool}
}

// --- boss_state ---

const bossStateColumns = `boss_id, name, encounter_id, behavior, status,
		        pos_x, pos_y, pos_z, health, max_health, updated_at`

func scanBossState(row pgx.Row) (BossStateRow, error) {
	var r BossStateRow
	err := row.Scan(
		&r.BossID, &r.Name, &r.EncounterID, &r.Behavior, &r.Status,
		&r.PosX, &r.PosY, &r.PosZ, &r.Health, &r.MaxHealth, &r.UpdatedAt,
	)
	return r, err
}

// LoadAllBosses loads every boss state record ordered by boss ID.
func (r *BossRepository) LoadAllBosses(ctx context.Context) ([]BossStateRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bossStateColumns+` FROM boss_state ORDER BY boss_id`)
	if err != nil {
		return nil, fmt.Errorf("query boss_state: %w", err)
	}
	defer rows.Close()

	var result []BossStateRow
	for rows.Next() {
		row, err := scanBossState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan boss_state: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

const upsertBossState = `INSERT INTO boss_state (boss_id, name, encounter_id, behavior, status,
		                        pos_x, pos_y, pos_z, health, max_health, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (boss_id) DO UPDATE SET
		   name         = EXCLUDED.name,
		   encounter_id = EXCLUDED.encounter_id,
		   behavior     = EXCLUDED.behavior,
		   status       = EXCLUDED.status,
		   pos_x        = EXCLUDED.pos_x,
		   pos_y        = EXCLUDED.pos_y,
		   pos_z        = EXCLUDED.pos_z,
		   health       = EXCLUDED.health,
		   max_health   = EXCLUDED.max_health,
		   updated_at   = EXCLUDED.updated_at`

func upsertArgs(row BossStateRow) []any {
	at := row.UpdatedAt
	if at.IsZero() {
		at = time.Now()
	}
	return []any{
		row.BossID, row.Name, row.EncounterID, row.Behavior, row.Status,
		row.PosX, row.PosY, row.PosZ, row.Health, row.MaxHealth, at,
	}
}

// SaveBoss inserts or updates a boss state record.
func (r *BossRepository) SaveBoss(ctx context.Context, row BossStateRow) error {
	if _, err := r.pool.Exec(ctx, upsertBossState, upsertArgs(row)...); err != nil {
		return fmt.Errorf("upsert boss_state boss %d: %w", row.BossID, err)
	}
	return nil
}

// SaveAllBosses upserts every row in a single transaction.
func (r *BossRepository) SaveAllBosses(ctx context.Context, rows []BossStateRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for boss_state: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "table", "boss_state", "error", err)
		}
	}()

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertBossState, upsertArgs(row)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert boss_state batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit boss_state: %w", err)
	}
	return nil
}

// --- boss_transitions ---

// AppendTransitions bulk-inserts transition rows with COPY.
func (r *BossRepository) AppendTransitions(ctx context.Context, rows []BossTransitionRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"boss_transitions"},
		[]string{"boss_id", "encounter_id", "from_behavior", "to_behavior", "requested", "reason", "tick", "at"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			row := rows[i]
			return []any{
				row.BossID, row.EncounterID, row.FromBehavior, row.ToBehavior,
				row.Requested, row.Reason, row.Tick, row.At,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy boss_transitions: %w", err)
	}
	return n, nil
}

// ListTransitions returns the newest transitions of a boss, newest first.
func (r *BossRepository) ListTransitions(ctx context.Context, bossID int64, limit int) ([]BossTransitionRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, boss_id, encounter_id, from_behavior, to_behavior, requested, reason, tick, at
		 FROM boss_transitions WHERE boss_id = $1
		 ORDER BY id DESC LIMIT $2`, bossID, limit)
	if err != nil {
		return nil, fmt.Errorf("query boss_transitions boss %d: %w", bossID, err)
	}
	defer rows.Close()

	var result []BossTransitionRow
	for rows.Next() {
		var row BossTransitionRow
		if err := rows.Scan(
			&row.ID, &row.BossID, &row.EncounterID, &row.FromBehavior, &row.ToBehavior,
			&row.Requested, &row.Reason, &row.Tick, &row.At,
		); err != nil {
			return nil, fmt.Errorf("scan boss_transitions: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
