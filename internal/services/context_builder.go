package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lifeos/internal/database"
	"lifeos/internal/models"
)

// DomainReader exposes the read-only domain queries the AI layer needs
// when building prompts and heuristic context. This subsystem never
// writes domain data.
type DomainReader interface {
	OpenTasks(ctx context.Context, userID string, limit int) ([]models.TaskSnapshot, error)
	ActiveHabits(ctx context.Context, userID string, limit int) ([]models.HabitSnapshot, error)
	RecentTransactions(ctx context.Context, userID string, limit int) ([]models.TransactionSnapshot, error)
	LatestMetric(ctx context.Context, userID, metricType string) (float64, error)
}

// SQLDomainReader reads domain rows from the shared SQLite database.
type SQLDomainReader struct {
	db *database.DB
}

func NewSQLDomainReader(db *database.DB) *SQLDomainReader {
	return &SQLDomainReader{db: db}
}

func (r *SQLDomainReader) OpenTasks(ctx context.Context, userID string, limit int) ([]models.TaskSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(due_date, ''), COALESCE(energy, '')
		FROM tasks
		WHERE user_id = ? AND completed = 0 AND deleted_at IS NULL
		ORDER BY due_date IS NULL, due_date ASC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.TaskSnapshot
	for rows.Next() {
		var t models.TaskSnapshot
		if err := rows.Scan(&t.ID, &t.Title, &t.DueDate, &t.Energy); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *SQLDomainReader) ActiveHabits(ctx context.Context, userID string, limit int) ([]models.HabitSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title
		FROM habits
		WHERE user_id = ? AND active = 1 AND deleted_at IS NULL
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	var habits []models.HabitSnapshot
	for rows.Next() {
		var h models.HabitSnapshot
		if err := rows.Scan(&h.ID, &h.Title); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (r *SQLDomainReader) RecentTransactions(ctx context.Context, userID string, limit int) ([]models.TransactionSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT description, amount, COALESCE(category, '')
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.TransactionSnapshot
	for rows.Next() {
		var tx models.TransactionSnapshot
		if err := rows.Scan(&tx.Description, &tx.Amount, &tx.Category); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *SQLDomainReader) LatestMetric(ctx context.Context, userID, metricType string) (float64, error) {
	var value float64
	err := r.db.QueryRowContext(ctx, `
		SELECT value FROM health_metrics
		WHERE user_id = ? AND metric_type = ?
		ORDER BY recorded_date DESC
		LIMIT 1
	`, userID, metricType).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query metric: %w", err)
	}
	return value, nil
}

// dayPart buckets a clock time the way the suggestion prompts expect.
func dayPart(t time.Time) string {
	hour := t.Hour()
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	default:
		return "night"
	}
}

// buildContextSnapshot gathers the domain signals one suggestion request
// sees. Query failures leave the corresponding field empty rather than
// failing the request.
func buildContextSnapshot(ctx context.Context, reader DomainReader, userID, moodHint string, now time.Time) models.ContextSnapshot {
	snapshot := models.ContextSnapshot{
		DayPart:  dayPart(now),
		MoodHint: moodHint,
	}

	if tasks, err := reader.OpenTasks(ctx, userID, 8); err == nil {
		snapshot.Tasks = tasks
	}
	if habits, err := reader.ActiveHabits(ctx, userID, 8); err == nil {
		snapshot.Habits = habits
	}
	if txs, err := reader.RecentTransactions(ctx, userID, 3); err == nil {
		snapshot.Transactions = txs
	}
	if readiness, err := reader.LatestMetric(ctx, userID, "readiness"); err == nil {
		snapshot.Readiness = readiness
	}
	if hydration, err := reader.LatestMetric(ctx, userID, "hydration"); err == nil {
		snapshot.Hydration = hydration
	}
	return snapshot
}
