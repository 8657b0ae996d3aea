package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lotto/database"
	"lotto/domain/entities"

	"github.com/jackc/pgx/v5"
)

// DrawRepository tracks the settlement state of each draw
type DrawRepository struct {
	q Queryable
}

// NewDrawRepository creates a new draw repository
func NewDrawRepository(db *database.DB) *DrawRepository {
	return &DrawRepository{q: db.Pool}
}

// NewDrawRepositoryScoped creates a draw repository bound to a transaction
func NewDrawRepositoryScoped(tx Queryable) *DrawRepository {
	return &DrawRepository{q: tx}
}

// Get returns the draw, or nil when nothing was recorded for it yet
func (r *DrawRepository) Get(ctx context.Context, gameType entities.GameType, gameNumber string) (*entities.Draw, error) {
	query := `
		SELECT game_type, game_number, state, result, updated_at
		FROM draw_states
		WHERE game_type = $1 AND game_number = $2
	`
	draw, err := scanDraw(r.q.QueryRow(ctx, query, gameType, gameNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get draw %s", entities.DrawKey(gameType, gameNumber)), err)
	}
	return draw, nil
}

// LockForAdmission inserts the draw as open when unseen, then takes a share
// lock on its row. BeginSettlement needs the row exclusively, so it waits for
// in-flight purchases and purchases wait for a running settlement.
func (r *DrawRepository) LockForAdmission(ctx context.Context, gameType entities.GameType, gameNumber string) (entities.DrawState, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO draw_states (game_type, game_number, state, updated_at)
		VALUES ($1, $2, 'open', NOW())
		ON CONFLICT (game_type, game_number) DO NOTHING
	`, gameType, gameNumber)
	if err != nil {
		return "", wrapErr("open draw", err)
	}

	var state entities.DrawState
	err = r.q.QueryRow(ctx,
		`SELECT state FROM draw_states WHERE game_type = $1 AND game_number = $2 FOR SHARE`,
		gameType, gameNumber,
	).Scan(&state)
	if err != nil {
		return "", wrapErr(fmt.Sprintf("lock draw %s", entities.DrawKey(gameType, gameNumber)), err)
	}
	return state, nil
}

// SaveResult stores a result on an open or unseen draw. stored is false when
// the draw already carries a result; the existing one is left untouched.
func (r *DrawRepository) SaveResult(ctx context.Context, result *entities.DrawResult) (bool, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal draw result: %w", err)
	}

	query := `
		INSERT INTO draw_states (game_type, game_number, state, result, updated_at)
		VALUES ($1, $2, 'result_published', $3, NOW())
		ON CONFLICT (game_type, game_number) DO UPDATE SET
			state = 'result_published',
			result = EXCLUDED.result,
			updated_at = NOW()
		WHERE draw_states.result IS NULL AND draw_states.state = 'open'
		RETURNING state
	`
	var state string
	err = r.q.QueryRow(ctx, query, result.GameType, result.GameNumber, payload).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapErr("save draw result", err)
	}
	return true, nil
}

// BeginSettlement moves a draw into the settling state, recording result if
// none was stored. acquired is false when the draw is settling or settled.
func (r *DrawRepository) BeginSettlement(ctx context.Context, result *entities.DrawResult) (bool, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal draw result: %w", err)
	}

	query := `
		INSERT INTO draw_states (game_type, game_number, state, result, updated_at)
		VALUES ($1, $2, 'settling', $3, NOW())
		ON CONFLICT (game_type, game_number) DO UPDATE SET
			state = 'settling',
			result = COALESCE(draw_states.result, EXCLUDED.result),
			updated_at = NOW()
		WHERE draw_states.state IN ('open', 'result_published')
		RETURNING state
	`
	var state string
	err = r.q.QueryRow(ctx, query, result.GameType, result.GameNumber, payload).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapErr("begin settlement", err)
	}
	return true, nil
}

// CompleteSettlement moves a settling draw to settled
func (r *DrawRepository) CompleteSettlement(ctx context.Context, gameType entities.GameType, gameNumber string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE draw_states SET state = 'settled', updated_at = NOW() WHERE game_type = $1 AND game_number = $2 AND state = 'settling'`,
		gameType, gameNumber,
	)
	if err != nil {
		return wrapErr("complete settlement", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("draw %s is not settling", entities.DrawKey(gameType, gameNumber))
	}
	return nil
}

// ListPendingSettlement returns draws with a published result that has not
// been settled, last touched before the cutoff, oldest first
func (r *DrawRepository) ListPendingSettlement(ctx context.Context, before time.Time, limit int) ([]*entities.Draw, error) {
	query := `
		SELECT game_type, game_number, state, result, updated_at
		FROM draw_states
		WHERE state = 'result_published' AND updated_at < $1
		ORDER BY updated_at
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, query, before, limit)
	if err != nil {
		return nil, wrapErr("list pending draws", err)
	}
	defer rows.Close()

	draws := make([]*entities.Draw, 0)
	for rows.Next() {
		draw, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, draw)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate pending draws", err)
	}
	return draws, nil
}

func scanDraw(row pgx.Row) (*entities.Draw, error) {
	var d entities.Draw
	var result []byte
	if err := row.Scan(&d.GameType, &d.GameNumber, &d.State, &result, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if len(result) > 0 {
		d.Result = &entities.DrawResult{}
		if err := json.Unmarshal(result, d.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal draw result: %w", err)
		}
	}
	return &d, nil
}
