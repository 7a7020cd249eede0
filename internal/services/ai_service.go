package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"lifeos/internal/ai"
	"lifeos/internal/logging"
	"lifeos/internal/models"
	"lifeos/internal/store"
)

// Feature names. These key the cache, the quota and the usage log, so
// they are part of the stored data contract.
const (
	FeatureChat                 = "chat"
	FeatureTags                 = "tags"
	FeatureSwot                 = "swot"
	FeatureWeeklyPlan           = "weekly-plan"
	FeatureDailySummary         = "daily-summary"
	FeatureParseTask            = "parse-task"
	FeatureClassifyTransaction  = "classify-transaction"
	FeatureSuggestions          = "suggestions"
	FeatureHabitRecommendations = "habit-recommendations"
)

// Result sources reported to callers alongside the output.
const (
	SourceAI        = "ai"
	SourceCache     = "cache"
	SourceHeuristic = "heuristic"
)

// CallOptions carries per-call flags from the interactive surface.
type CallOptions struct {
	// Force bypasses the user's reduced-AI opt-down and the daily
	// ceiling for one explicit user action.
	Force bool
}

// AIService is the feature-level entry point of the AI layer. Each
// feature call runs the same pipeline: quota check, cache read, provider
// orchestration, output validation, then best-effort cache write and
// usage logging. Failures along the chain degrade to the feature's
// deterministic heuristic where one exists.
type AIService struct {
	orchestrator *ai.Orchestrator
	cache        *ai.ResponseCache
	quota        *ai.QuotaGuard
	usageLog     store.UsageLog
	metrics      *Metrics
}

func NewAIService(orchestrator *ai.Orchestrator, cache *ai.ResponseCache, quota *ai.QuotaGuard, usageLog store.UsageLog, metrics *Metrics) *AIService {
	return &AIService{
		orchestrator: orchestrator,
		cache:        cache,
		quota:        quota,
		usageLog:     usageLog,
		metrics:      metrics,
	}
}

// record appends a usage record. Logging is a best-effort side effect;
// it never blocks returning an already-obtained answer.
func (s *AIService) record(ctx context.Context, userID, feature string, success bool, errMsg string, tokens int, elapsed int64) {
	rec := models.UsageLogRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		FeatureName:  feature,
		Success:      success,
		ErrorMessage: errMsg,
		TokensUsed:   tokens,
		ElapsedMs:    elapsed,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.usageLog.Append(ctx, rec); err != nil {
		log.Printf("⚠️ [AI] failed to append usage record for %s/%s: %v", userID, feature, err)
	}
}

func (s *AIService) observe(feature string, outcome ai.Outcome) {
	if s.metrics != nil {
		s.metrics.Requests.WithLabelValues(feature, string(outcome.Status)).Inc()
	}
}

// invoke runs the shared pipeline up to a schema-valid AI payload. It
// returns the raw validated JSON and where it came from ("ai" or
// "cache"). Quota denials come back as *QuotaExceededError; provider,
// parse and validation errors come back as-is for the caller to either
// degrade or propagate.
func (s *AIService) invoke(ctx context.Context, userID, feature string, tier models.Tier, req models.AIRequest, input any, opts CallOptions, validate func(json.RawMessage) error) (json.RawMessage, string, error) {
	if err := s.quota.CheckLimit(ctx, userID, feature, opts.Force); err != nil {
		if s.metrics != nil {
			s.metrics.QuotaDenials.Inc()
		}
		s.observe(feature, ai.Denied(err.Error()))
		s.record(ctx, userID, feature, false, err.Error(), 0, 0)
		return nil, "", err
	}

	if raw, hit := s.cache.Get(ctx, userID, feature, input); hit {
		if validate(raw) == nil {
			if s.metrics != nil {
				s.metrics.CacheHits.WithLabelValues(feature).Inc()
			}
			return raw, SourceCache, nil
		}
		// a stale entry from an older schema: drop it and regenerate
		_ = s.cache.Invalidate(ctx, userID, feature, input)
	}

	resp, err := s.orchestrator.Execute(ctx, tier, req)
	if err != nil {
		return nil, "", err
	}

	if s.metrics != nil {
		s.metrics.RequestLatency.Observe(float64(resp.ElapsedMs) / 1000)
	}

	raw, err := ai.ExtractJSON(feature, resp.Text)
	if err != nil {
		return nil, "", err
	}
	if err := validate(raw); err != nil {
		return nil, "", err
	}

	s.cache.Set(ctx, userID, feature, input, json.RawMessage(raw))
	s.record(ctx, userID, feature, true, "", resp.TokensUsed, resp.ElapsedMs)
	s.observe(feature, ai.Success())
	logging.WithFeature(userID, feature).Debug("ai call completed",
		"model", resp.ModelUsed, "tokens", resp.TokensUsed, "elapsed_ms", resp.ElapsedMs)
	return raw, SourceAI, nil
}

// degrade logs the successful-but-degraded usage record after a failure
// was absorbed by a heuristic. tokensUsed stays zero: no AI ran.
func (s *AIService) degrade(ctx context.Context, userID, feature string, cause error) {
	log.Printf("⚠️ [AI] %s degraded for %s, using heuristic: %v", feature, userID, cause)
	s.record(ctx, userID, feature, true, fmt.Sprintf("degraded: %v", cause), 0, 0)
	s.observe(feature, ai.Degraded(cause.Error()))
}

// fail logs a terminal failure for a feature with no safe fallback.
func (s *AIService) fail(ctx context.Context, userID, feature string, cause error) {
	s.record(ctx, userID, feature, false, cause.Error(), 0, 0)
	s.observe(feature, ai.FailedWith(cause.Error()))
}

// isDenial reports whether err is the quota hard stop, which is never
// substituted with a heuristic.
func isDenial(err error) bool {
	var qe *ai.QuotaExceededError
	return errors.As(err, &qe)
}

// Chat answers a free-form message on the requested tier. Chat output is
// unstructured and conversational, so it is neither cached nor backed by
// a heuristic: errors propagate to the caller.
func (s *AIService) Chat(ctx context.Context, userID, message, systemContext string, tier models.Tier, opts CallOptions) (*models.AIResponse, error) {
	if err := s.quota.CheckLimit(ctx, userID, FeatureChat, opts.Force); err != nil {
		if s.metrics != nil {
			s.metrics.QuotaDenials.Inc()
		}
		s.observe(FeatureChat, ai.Denied(err.Error()))
		s.record(ctx, userID, FeatureChat, false, err.Error(), 0, 0)
		return nil, err
	}

	systemPrompt := systemContext
	if systemPrompt == "" {
		systemPrompt = "You are the Life OS copilot. Respond concisely."
	}

	resp, err := s.orchestrator.Execute(ctx, tier, models.AIRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   message,
		Temperature:  0.7,
	})
	if err != nil {
		s.fail(ctx, userID, FeatureChat, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RequestLatency.Observe(float64(resp.ElapsedMs) / 1000)
	}
	s.record(ctx, userID, FeatureChat, true, "", resp.TokensUsed, resp.ElapsedMs)
	s.observe(FeatureChat, ai.Success())
	return resp, nil
}

// GenerateTags produces up to five lowercase tags for a piece of
// content. Degrades to keyword extraction.
func (s *AIService) GenerateTags(ctx context.Context, userID, content, contentType string, opts CallOptions) ([]string, string, error) {
	input := map[string]string{"content": content, "type": contentType}
	req := models.AIRequest{
		SystemPrompt: "You generate tags for personal productivity content. Return only a JSON array of at most 5 short lowercase tags.",
		UserPrompt:   fmt.Sprintf("Content type: %s\n\n%s", contentType, content),
		Temperature:  0.2,
		JSONMode:     true,
	}

	raw, source, err := s.invoke(ctx, userID, FeatureTags, models.TierSpeed, req, input, opts, func(r json.RawMessage) error {
		_, verr := validateTags(r)
		return verr
	})
	if err != nil {
		if isDenial(err) {
			return nil, "", err
		}
		s.degrade(ctx, userID, FeatureTags, err)
		return heuristicTags(content, contentType), SourceHeuristic, nil
	}

	tags, _ := validateTags(raw)
	return tags, source, nil
}

// GenerateSwot produces a strategic analysis of the given context on the
// deep-reasoning tier. There is no meaningful deterministic substitute
// for a strategic analysis, so this feature has no heuristic fallback:
// failures surface to the caller.
func (s *AIService) GenerateSwot(ctx context.Context, userID, userContext string, opts CallOptions) (*models.Swot, string, error) {
	req := models.AIRequest{
		SystemPrompt: "You are a strategic analyst. Produce a SWOT (FOFA) analysis. Return only JSON with keys strengths, weaknesses, opportunities, threats, each an array of strings.",
		UserPrompt:   userContext,
		Temperature:  0.4,
		JSONMode:     true,
	}

	raw, source, err := s.invoke(ctx, userID, FeatureSwot, models.TierDeepReason, req, userContext, opts, func(r json.RawMessage) error {
		_, verr := validateSwot(r)
		return verr
	})
	if err != nil {
		if !isDenial(err) {
			s.fail(ctx, userID, FeatureSwot, err)
		}
		return nil, "", fmt.Errorf("swot generation failed: %w", err)
	}

	swot, _ := validateSwot(raw)
	return swot, source, nil
}

// GenerateWeeklyPlan produces a weekday-to-focus-items plan on the
// deep-reasoning tier. Like SWOT, a fabricated deterministic plan would
// be misleading, so failures surface instead of degrading.
func (s *AIService) GenerateWeeklyPlan(ctx context.Context, userID, userContext string, opts CallOptions) (models.WeeklyPlan, string, error) {
	req := models.AIRequest{
		SystemPrompt: "You are a weekly planning assistant. Return only a JSON object mapping weekday names (Monday..Sunday) to arrays of short focus items.",
		UserPrompt:   userContext,
		Temperature:  0.4,
		JSONMode:     true,
	}

	raw, source, err := s.invoke(ctx, userID, FeatureWeeklyPlan, models.TierDeepReason, req, userContext, opts, func(r json.RawMessage) error {
		_, verr := validateWeeklyPlan(r)
		return verr
	})
	if err != nil {
		if !isDenial(err) {
			s.fail(ctx, userID, FeatureWeeklyPlan, err)
		}
		return nil, "", fmt.Errorf("weekly plan generation failed: %w", err)
	}

	plan, _ := validateWeeklyPlan(raw)
	return plan, source, nil
}

// GenerateDailySummary reduces the day's notes to at most five bullets.
// Degrades to sentence splitting.
func (s *AIService) GenerateDailySummary(ctx context.Context, userID, content string, opts CallOptions) ([]string, string, error) {
	req := models.AIRequest{
		SystemPrompt: "Resuma o dia do usuário. Return only a JSON array of at most 5 short bullet strings.",
		UserPrompt:   content,
		Temperature:  0.3,
		JSONMode:     true,
	}

	raw, source, err := s.invoke(ctx, userID, FeatureDailySummary, models.TierSpeed, req, content, opts, func(r json.RawMessage) error {
		_, verr := validateSummary(r)
		return verr
	})
	if err != nil {
		if isDenial(err) {
			return nil, "", err
		}
		s.degrade(ctx, userID, FeatureDailySummary, err)
		return heuristicSummary(content), SourceHeuristic, nil
	}

	bullets, _ := validateSummary(raw)
	return bullets, source, nil
}

// ParseTask turns a free-form task line into structured fields. Degrades
// to the rule-based parser.
func (s *AIService) ParseTask(ctx context.Context, userID, input string, opts CallOptions) (*models.ParsedTask, string, error) {
	req := models.AIRequest{
		SystemPrompt: "Parse a natural-language task into JSON with keys title, priority (low|medium|high), energy (low|medium|high) and optional due_hint. Return only JSON.",
		UserPrompt:   input,
		Temperature:  0.1,
		JSONMode:     true,
	}

	raw, source, err := s.invoke(ctx, userID, FeatureParseTask, models.TierSpeed, req, input, opts, func(r json.RawMessage) error {
		_, verr := validateParsedTask(r)
		return verr
	})
	if err != nil {
		if isDenial(err) {
			return nil, "", err
		}
		s.degrade(ctx, userID, FeatureParseTask, err)
		task := heuristicParseTask(input)
		return &task, SourceHeuristic, nil
	}

	task, _ := validateParsedTask(raw)
	return task, source, nil
}

// ClassifyTransaction assigns a finance category to a transaction
// description. Recognized keywords short-circuit to the local classifier
// before the pipeline ever runs: no quota, no cache, no provider call.
func (s *AIService) ClassifyTransaction(ctx context.Context, userID, description string, opts CallOptions) (string, string, error) {
	if category := classifyTransactionLocally(description); category != "unknown" {
		return category, SourceHeuristic, nil
	}

	req := models.AIRequest{
		SystemPrompt: "Classify a personal finance transaction into a single category like groceries, transport, housing, health, income, dining or other. Return only JSON: {\"category\": \"...\"}.",
		UserPrompt:   description,
		Temperature:  0.1,
		JSONMode:     true,
	}

	raw, source, err := s.invoke(ctx, userID, FeatureClassifyTransaction, models.TierSpeed, req, description, opts, func(r json.RawMessage) error {
		_, verr := validateCategory(r)
		return verr
	})
	if err != nil {
		if isDenial(err) {
			return "", "", err
		}
		s.degrade(ctx, userID, FeatureClassifyTransaction, err)
		return "unknown", SourceHeuristic, nil
	}

	category, _ := validateCategory(raw)
	return category, source, nil
}

// GenerateHabitRecommendations suggests up to three new habits from the
// user's current habits and goals. Degrades to an empty list: no
// recommendation is an acceptable recommendation.
func (s *AIService) GenerateHabitRecommendations(ctx context.Context, userID, userContext string, opts CallOptions) ([]models.HabitRecommendation, string, error) {
	req := models.AIRequest{
		SystemPrompt: "Você é um coach de alta performance. Sugira 3 novos hábitos que complementem a rotina do usuário. Return only a JSON array of objects with title, rationale, benefits, frequency and category (productivity|health|wellness|finance).",
		UserPrompt:   userContext,
		Temperature:  0.7,
		JSONMode:     true,
	}

	raw, source, err := s.invoke(ctx, userID, FeatureHabitRecommendations, models.TierDeepReason, req, userContext, opts, func(r json.RawMessage) error {
		_, verr := validateRecommendations(r)
		return verr
	})
	if err != nil {
		if isDenial(err) {
			return nil, "", err
		}
		s.degrade(ctx, userID, FeatureHabitRecommendations, err)
		return []models.HabitRecommendation{}, SourceHeuristic, nil
	}

	recs, _ := validateRecommendations(raw)
	return recs, source, nil
}

// InvalidateFeature drops cached outputs after the domain data a
// feature's context depends on changed (create/update/delete of a
// related record).
func (s *AIService) InvalidateFeature(ctx context.Context, userID, feature string) error {
	return s.cache.Invalidate(ctx, userID, feature, nil)
}

// GetLogs returns the user's recent usage records, newest first.
func (s *AIService) GetLogs(ctx context.Context, userID string) ([]models.UsageLogRecord, error) {
	return s.usageLog.List(ctx, userID, 100)
}
