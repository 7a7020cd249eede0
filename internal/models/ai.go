package models

import "time"

// Tier selects which provider strategy services a call.
type Tier string

const (
	TierSpeed      Tier = "speed"
	TierDeepReason Tier = "deep_reason"
)

// AIRequest is the normalized request handed to provider adapters.
// It is constructed per call and never mutated afterwards.
type AIRequest struct {
	SystemPrompt  string
	UserPrompt    string
	Temperature   float64
	JSONMode      bool
	ModelOverride string
}

// AIResponse is the normalized provider response. The shape is identical
// regardless of which adapter produced it.
type AIResponse struct {
	Text       string `json:"text"`
	TokensUsed int    `json:"tokens_used"`
	ElapsedMs  int64  `json:"elapsed_ms"`
	ModelUsed  string `json:"model_used"`
}

// UsageLogRecord is an append-only audit record of one AI invocation.
// The log doubles as the quota-counting source of truth; there is no
// separate counter.
type UsageLogRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	FeatureName  string    `json:"function_name"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	TokensUsed   int       `json:"tokens_used,omitempty"`
	ElapsedMs    int64     `json:"response_time_ms,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Suggestion is one actionable suggestion shown on the dashboard.
// Source records where it came from: "ai", "heuristic" or "cache".
type Suggestion struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Rationale   string `json:"rationale"`
	ActionLabel string `json:"action_label"`
	Source      string `json:"source"`
}

// Swot is a four-quadrant strategic analysis.
type Swot struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// WeeklyPlan maps weekday names to planned focus items.
type WeeklyPlan map[string][]string

// Task priority and energy levels accepted from parsed natural language.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	EnergyLow    = "low"
	EnergyMedium = "medium"
	EnergyHigh   = "high"
)

// ParsedTask is the structured result of parsing a free-form task line.
type ParsedTask struct {
	Title    string `json:"title"`
	Priority string `json:"priority"`
	Energy   string `json:"energy"`
	DueHint  string `json:"due_hint,omitempty"`
}

// HabitRecommendation is one suggested habit for the user to adopt.
type HabitRecommendation struct {
	Title     string `json:"title"`
	Rationale string `json:"rationale"`
	Benefits  string `json:"benefits"`
	Frequency string `json:"frequency"`
	Category  string `json:"category"`
}

// TaskSnapshot is a read-only view of an open task used when building
// suggestion prompts and heuristic output.
type TaskSnapshot struct {
	ID      string
	Title   string
	DueDate string
	Energy  string
}

// HabitSnapshot is a read-only view of an active habit.
type HabitSnapshot struct {
	ID    string
	Title string
}

// TransactionSnapshot is a read-only view of a recent finance entry.
type TransactionSnapshot struct {
	Description string
	Amount      float64
	Category    string
}

// ContextSnapshot aggregates the domain signals a suggestion request sees.
type ContextSnapshot struct {
	DayPart      string // "morning", "afternoon" or "night"
	Tasks        []TaskSnapshot
	Habits       []HabitSnapshot
	Transactions []TransactionSnapshot
	Readiness    float64
	Hydration    float64
	MoodHint     string
}
