package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"lifeos/internal/database"
	"lifeos/internal/models"
)

// SQLiteStore is the durable KeyedStore backed by the ai_cache table.
// Entries carry no expiry in this mode; invalidation is explicit.
type SQLiteStore struct {
	db *database.DB
}

func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var output string
	err := s.db.QueryRowContext(ctx, `SELECT output FROM ai_cache WHERE cache_key = ?`, key).Scan(&output)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entry: %w", err)
	}
	return []byte(output), nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_cache (cache_key, output, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(cache_key) DO UPDATE SET output = excluded.output, updated_at = CURRENT_TIMESTAMP
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ai_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeletePrefix(ctx context.Context, prefix string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ai_cache WHERE cache_key LIKE ? || '%'`, prefix); err != nil {
		return fmt.Errorf("failed to delete cache prefix: %w", err)
	}
	return nil
}

// SQLiteUsageLog is the durable UsageLog backed by the ai_logs table.
type SQLiteUsageLog struct {
	db *database.DB
}

func NewSQLiteUsageLog(db *database.DB) *SQLiteUsageLog {
	return &SQLiteUsageLog{db: db}
}

func (l *SQLiteUsageLog) Append(ctx context.Context, rec models.UsageLogRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO ai_logs (id, user_id, function_name, success, error_message, tokens_used, response_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.UserID, rec.FeatureName, rec.Success, rec.ErrorMessage, rec.TokensUsed, rec.ElapsedMs, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}
	return nil
}

func (l *SQLiteUsageLog) CountSince(ctx context.Context, userID, feature string, since time.Time) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ai_logs
		WHERE user_id = ? AND function_name = ? AND created_at >= ?
	`, userID, feature, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}
	return count, nil
}

func (l *SQLiteUsageLog) List(ctx context.Context, userID string, limit int) ([]models.UsageLogRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, user_id, function_name, success, error_message, tokens_used, response_time_ms, created_at
		FROM ai_logs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	var records []models.UsageLogRecord
	for rows.Next() {
		var rec models.UsageLogRecord
		var errMsg sql.NullString
		var tokens, elapsed sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.FeatureName, &rec.Success, &errMsg, &tokens, &elapsed, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		if errMsg.Valid {
			rec.ErrorMessage = errMsg.String
		}
		if tokens.Valid {
			rec.TokensUsed = int(tokens.Int64)
		}
		if elapsed.Valid {
			rec.ElapsedMs = elapsed.Int64
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (l *SQLiteUsageLog) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM ai_logs WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// SQLitePreferences reads user preferences from the users table. The
// preferences column holds a JSON object; reduced-AI mode is the lowIA
// flag carried over from the legacy schema.
type SQLitePreferences struct {
	db *database.DB
}

func NewSQLitePreferences(db *database.DB) *SQLitePreferences {
	return &SQLitePreferences{db: db}
}

func (p *SQLitePreferences) ReducedAI(ctx context.Context, userID string) (bool, error) {
	var raw string
	err := p.db.QueryRowContext(ctx, `SELECT preferences FROM users WHERE id = ?`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query preferences: %w", err)
	}

	var prefs struct {
		LowIA bool `json:"lowIA"`
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return false, nil
	}
	return prefs.LowIA, nil
}
