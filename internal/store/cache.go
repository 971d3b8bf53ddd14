// Package store provides a SQLite-backed cache for replayed session reports.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/flightrec/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed report caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveReport stores a replayed session report and its file tracking info.
func (c *Cache) SaveReport(r model.SessionReport, mtimeNs, sizeBytes int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	startTime := ""
	if !r.StartTime.IsZero() {
		startTime = r.StartTime.UTC().Format(time.RFC3339)
	}
	endTime := ""
	if !r.EndTime.IsZero() {
		endTime = r.EndTime.UTC().Format(time.RFC3339)
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO sessions
		(session_id, file_path, start_time, end_time, turns,
		 input_tokens, output_tokens, estimated_cost,
		 slow_tool_warnings, cost_warnings, injections,
		 final_phase, phase_confidence, file_mtime_ns, file_size, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.FilePath, startTime, endTime, r.Turns,
		r.InputTokens, r.OutputTokens, r.EstimatedCost,
		r.SlowToolWarnings, r.CostWarnings, r.Injections,
		r.FinalPhase, r.PhaseConfidence, mtimeNs, sizeBytes, now,
	)
	if err != nil {
		return err
	}

	// Replace child rows wholesale; partial updates are never worth it here
	for _, table := range []string{"session_models", "session_tools", "session_phases"} {
		if _, err = tx.Exec("DELETE FROM "+table+" WHERE session_id = ?", r.SessionID); err != nil {
			return err
		}
	}

	for modelName, mu := range r.Models {
		_, err = tx.Exec(`INSERT INTO session_models
			(session_id, model, turns, input_tokens, output_tokens, estimated_cost)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.SessionID, modelName, mu.Turns, mu.InputTokens, mu.OutputTokens, mu.EstimatedCost,
		)
		if err != nil {
			return err
		}
	}

	for _, ts := range r.Tools {
		_, err = tx.Exec(`INSERT INTO session_tools
			(session_id, tool, calls, total_secs)
			VALUES (?, ?, ?, ?)`,
			r.SessionID, ts.Name, ts.Calls, ts.TotalSecs,
		)
		if err != nil {
			return err
		}
	}

	for i, rec := range r.Phases {
		startedAt := ""
		if !rec.StartedAt.IsZero() {
			startedAt = rec.StartedAt.UTC().Format(time.RFC3339)
		}
		_, err = tx.Exec(`INSERT INTO session_phases
			(session_id, seq, phase, duration_secs, started_at)
			VALUES (?, ?, ?, ?, ?)`,
			r.SessionID, i, rec.Phase, rec.DurationSecs, startedAt,
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)`, r.FilePath, mtimeNs, sizeBytes)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LoadAllReports reads all cached session reports from the database.
func (c *Cache) LoadAllReports() ([]model.SessionReport, error) {
	rows, err := c.db.Query(`SELECT
		session_id, file_path, start_time, end_time, turns,
		input_tokens, output_tokens, estimated_cost,
		slow_tool_warnings, cost_warnings, injections,
		final_phase, phase_confidence
		FROM sessions`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var reports []model.SessionReport
	for rows.Next() {
		var r model.SessionReport
		var startStr, endStr sql.NullString

		err := rows.Scan(
			&r.SessionID, &r.FilePath, &startStr, &endStr, &r.Turns,
			&r.InputTokens, &r.OutputTokens, &r.EstimatedCost,
			&r.SlowToolWarnings, &r.CostWarnings, &r.Injections,
			&r.FinalPhase, &r.PhaseConfidence,
		)
		if err != nil {
			return nil, err
		}

		if startStr.Valid && startStr.String != "" {
			r.StartTime, _ = time.Parse(time.RFC3339, startStr.String)
		}
		if endStr.Valid && endStr.String != "" {
			r.EndTime, _ = time.Parse(time.RFC3339, endStr.String)
		}

		r.Models = make(map[string]*model.ModelUsage)
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Build session index for fast child-row attachment
	idx := make(map[string]int, len(reports))
	for i, r := range reports {
		idx[r.SessionID] = i
	}

	modelRows, err := c.db.Query(`SELECT
		session_id, model, turns, input_tokens, output_tokens, estimated_cost
		FROM session_models`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = modelRows.Close() }()

	for modelRows.Next() {
		var sid, modelName string
		var mu model.ModelUsage
		err := modelRows.Scan(&sid, &modelName, &mu.Turns, &mu.InputTokens, &mu.OutputTokens, &mu.EstimatedCost)
		if err != nil {
			return nil, err
		}
		if i, ok := idx[sid]; ok {
			reports[i].Models[modelName] = &mu
		}
	}
	if err := modelRows.Err(); err != nil {
		return nil, err
	}

	toolRows, err := c.db.Query(`SELECT
		session_id, tool, calls, total_secs
		FROM session_tools ORDER BY session_id, tool`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = toolRows.Close() }()

	for toolRows.Next() {
		var sid string
		var ts model.ToolStat
		if err := toolRows.Scan(&sid, &ts.Name, &ts.Calls, &ts.TotalSecs); err != nil {
			return nil, err
		}
		if ts.Calls > 0 {
			ts.AvgSecs = ts.TotalSecs / float64(ts.Calls)
		}
		if i, ok := idx[sid]; ok {
			reports[i].Tools = append(reports[i].Tools, ts)
		}
	}
	if err := toolRows.Err(); err != nil {
		return nil, err
	}

	phaseRows, err := c.db.Query(`SELECT
		session_id, phase, duration_secs, started_at
		FROM session_phases ORDER BY session_id, seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = phaseRows.Close() }()

	for phaseRows.Next() {
		var sid string
		var rec model.PhaseRecord
		var startedStr sql.NullString
		if err := phaseRows.Scan(&sid, &rec.Phase, &rec.DurationSecs, &startedStr); err != nil {
			return nil, err
		}
		if startedStr.Valid && startedStr.String != "" {
			rec.StartedAt, _ = time.Parse(time.RFC3339, startedStr.String)
		}
		if i, ok := idx[sid]; ok {
			reports[i].Phases = append(reports[i].Phases, rec)
		}
	}

	return reports, phaseRows.Err()
}

// DeleteReport removes a session report and its associated data.
func (c *Cache) DeleteReport(sessionID string) error {
	_, err := c.db.Exec("DELETE FROM sessions WHERE session_id = ?", sessionID)
	return err
}

// DeleteFileTracker removes a file tracking entry.
func (c *Cache) DeleteFileTracker(filePath string) error {
	_, err := c.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", filePath)
	return err
}

// ReportCount returns the number of cached session reports.
func (c *Cache) ReportCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}
