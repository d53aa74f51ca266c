package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/pulse.report/internal/dataset"
)

// ReplaceDataset swaps both tables for the given dataset in a single
// transaction. A rebuild always recomputes every day, so the previous
// contents are discarded wholesale rather than merged.
func (db *DB) ReplaceDataset(tables *dataset.Tables) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM minute"); err != nil {
		return fmt.Errorf("failed to clear minute table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM daily"); err != nil {
		return fmt.Errorf("failed to clear daily table: %w", err)
	}

	minStmt, err := tx.Prepare(`
		INSERT INTO minute (timestamp, hr, stress, resp, bb, steps, kcal, sleep_flag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare minute insert: %w", err)
	}
	defer minStmt.Close()
	for _, row := range tables.Minutes {
		_, err := minStmt.Exec(row.Timestamp.Format(time.RFC3339),
			row.HR, row.Stress, row.Resp, row.BB, row.Steps, row.Kcal, row.SleepFlag)
		if err != nil {
			return fmt.Errorf("failed to insert minute row: %w", err)
		}
	}

	dayStmt, err := tx.Prepare(`
		INSERT INTO daily (date, hr, stress, resp, bb, steps, kcal, sleep_flag,
			coverage_hr, coverage_stress, coverage_resp, coverage_bb)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare daily insert: %w", err)
	}
	defer dayStmt.Close()
	for _, row := range tables.Daily {
		_, err := dayStmt.Exec(row.Date,
			row.HR, row.Stress, row.Resp, row.BB, row.Steps, row.Kcal, row.SleepFlag,
			row.CoverageHR, row.CoverageStress, row.CoverageResp, row.CoverageBB)
		if err != nil {
			return fmt.Errorf("failed to insert daily row for %s: %w", row.Date, err)
		}
	}

	return tx.Commit()
}

// DailyRows returns every daily row in ascending date order.
func (db *DB) DailyRows() ([]dataset.DailyRow, error) {
	rows, err := db.Query(`
		SELECT date, hr, stress, resp, bb, steps, kcal, sleep_flag,
			coverage_hr, coverage_stress, coverage_resp, coverage_bb
		FROM daily ORDER BY date
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily rows: %w", err)
	}
	defer rows.Close()

	var out []dataset.DailyRow
	for rows.Next() {
		var row dataset.DailyRow
		err := rows.Scan(&row.Date,
			&row.HR, &row.Stress, &row.Resp, &row.BB, &row.Steps, &row.Kcal, &row.SleepFlag,
			&row.CoverageHR, &row.CoverageStress, &row.CoverageResp, &row.CoverageBB)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MinuteCount returns the number of minute rows.
func (db *DB) MinuteCount() (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM minute").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count minute rows: %w", err)
	}
	return n, nil
}

// LastDailyDate returns the most recent date in the daily table. ok is
// false for an empty table.
func (db *DB) LastDailyDate() (date string, ok bool, err error) {
	var max sql.NullString
	if err := db.QueryRow("SELECT MAX(date) FROM daily").Scan(&max); err != nil {
		return "", false, fmt.Errorf("failed to query last daily date: %w", err)
	}
	if !max.Valid {
		return "", false, nil
	}
	return max.String, true, nil
}

// BuildRun is one recorded dataset build.
type BuildRun struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	RawDir          string
	Timezone        string
	StepMinutes     int
	BodyBatteryFill string
	Days            int
	Minutes         int
}

// RecordBuildRun persists one build run, assigning an ID if the caller
// left it empty.
func (db *DB) RecordBuildRun(run *BuildRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := db.Exec(`
		INSERT INTO build_runs (id, started_at, finished_at, raw_dir, timezone,
			step_minutes, bb_fill, days, minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.Format(time.RFC3339), run.FinishedAt.Format(time.RFC3339),
		run.RawDir, run.Timezone, run.StepMinutes, run.BodyBatteryFill, run.Days, run.Minutes)
	if err != nil {
		return fmt.Errorf("failed to record build run: %w", err)
	}
	return nil
}

// LastBuildRun returns the most recently finished build run. ok is false
// when no run has been recorded.
func (db *DB) LastBuildRun() (run BuildRun, ok bool, err error) {
	var started, finished string
	err = db.QueryRow(`
		SELECT id, started_at, finished_at, raw_dir, timezone, step_minutes, bb_fill, days, minutes
		FROM build_runs ORDER BY finished_at DESC LIMIT 1
	`).Scan(&run.ID, &started, &finished, &run.RawDir, &run.Timezone,
		&run.StepMinutes, &run.BodyBatteryFill, &run.Days, &run.Minutes)
	if err == sql.ErrNoRows {
		return BuildRun{}, false, nil
	}
	if err != nil {
		return BuildRun{}, false, fmt.Errorf("failed to query last build run: %w", err)
	}
	if run.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
		return BuildRun{}, false, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
		return BuildRun{}, false, fmt.Errorf("failed to parse finished_at: %w", err)
	}
	return run, true, nil
}
