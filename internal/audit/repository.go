package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/pkg/database"
)

// ErrNoRuns is returned when the archive is empty
var ErrNoRuns = errors.New("no archived scan runs")

const schema = `
	CREATE TABLE IF NOT EXISTS rs_scan_runs (
		run_id      TEXT PRIMARY KEY,
		started_at  TIMESTAMPTZ NOT NULL,
		config_hash TEXT NOT NULL,
		mode        TEXT NOT NULL,
		scored      INTEGER NOT NULL,
		selected    JSONB NOT NULL,
		result      JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS rs_scan_runs_started_at ON rs_scan_runs (started_at DESC);
`

// Repository archives scan results
// ⭐ SSOT: 스캔 이력 저장/조회는 여기서만
type Repository struct {
	db *database.DB
}

// NewRepository creates the archive table if needed
func NewRepository(ctx context.Context, db *database.DB) (*Repository, error) {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create scan archive: %w", err)
	}
	return &Repository{db: db}, nil
}

// Save stores a full result; saving the same run twice overwrites it
func (r *Repository) Save(ctx context.Context, result *contracts.ScanResult) error {
	record := NewRunRecord(result)

	selectedJSON, err := json.Marshal(record.Selected)
	if err != nil {
		return fmt.Errorf("failed to marshal selection: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `
		INSERT INTO rs_scan_runs (
			run_id, started_at, config_hash, mode, scored, selected, result
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			config_hash = EXCLUDED.config_hash,
			mode = EXCLUDED.mode,
			scored = EXCLUDED.scored,
			selected = EXCLUDED.selected,
			result = EXCLUDED.result
	`

	_, err = r.db.Pool.Exec(ctx, query,
		record.RunID, record.StartedAt, record.ConfigHash, string(record.Mode),
		record.Scored, selectedJSON, resultJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save scan run: %w", err)
	}

	return nil
}

// Latest returns the most recent full result
func (r *Repository) Latest(ctx context.Context) (*contracts.ScanResult, error) {
	var resultJSON []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT result FROM rs_scan_runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&resultJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	var result contracts.ScanResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// History returns up to limit run headers, newest first
func (r *Repository) History(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
		SELECT run_id, started_at, config_hash, mode, scored, selected
		FROM rs_scan_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan runs: %w", err)
	}
	defer rows.Close()

	records := make([]RunRecord, 0)
	for rows.Next() {
		var rec RunRecord
		var mode string
		var selectedJSON []byte

		if err := rows.Scan(&rec.RunID, &rec.StartedAt, &rec.ConfigHash, &mode, &rec.Scored, &selectedJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.Mode = contracts.ScoringMode(mode)
		if err := json.Unmarshal(selectedJSON, &rec.Selected); err != nil {
			return nil, fmt.Errorf("failed to unmarshal selection: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
