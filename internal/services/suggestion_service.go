package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	gocache "github.com/patrickmn/go-cache"

	"lifeos/internal/ai"
	"lifeos/internal/models"
)

// Burst limiter tuning. The window throttles short-term rate only; the
// daily ceiling is QuotaGuard's job and the two compose.
const (
	suggestionCacheTTL   = 2 * time.Minute
	requestWindow        = 30 * time.Second
	maxRequestsInWindow  = 3
	maxSuggestionsPerSet = 3
)

// SuggestionService produces dashboard suggestions with a short-window
// burst limiter in front of the AI pipeline. When a user hammers the
// endpoint, the limiter opportunistically reuses the last suggestion set
// instead of calling upstream again; it never hard-denies a request.
type SuggestionService struct {
	aiService *AIService
	reader    DomainReader

	suggestionCache *gocache.Cache

	mu     sync.Mutex
	window map[string][]time.Time

	// now is swappable in tests
	now func() time.Time
}

func NewSuggestionService(aiService *AIService, reader DomainReader) *SuggestionService {
	return &SuggestionService{
		aiService:       aiService,
		reader:          reader,
		suggestionCache: gocache.New(suggestionCacheTTL, time.Minute),
		window:          make(map[string][]time.Time),
		now:             time.Now,
	}
}

// Reset drops the request window and suggestion cache. Test hook; also
// useful when a deploy wants a clean slate without a restart.
func (s *SuggestionService) Reset() {
	s.mu.Lock()
	s.window = make(map[string][]time.Time)
	s.mu.Unlock()
	s.suggestionCache.Flush()
}

// bursting prunes the user's window to the last 30 seconds and reports
// whether another request would exceed the burst threshold. It does not
// record the request; requests absorbed by the cached set must not keep
// the window saturated.
func (s *SuggestionService) bursting(userID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := s.window[userID][:0]
	for _, ts := range s.window[userID] {
		if now.Sub(ts) < requestWindow {
			recent = append(recent, ts)
		}
	}
	s.window[userID] = recent
	return len(recent) >= maxRequestsInWindow
}

// recordHit appends the request timestamp to the user's window.
func (s *SuggestionService) recordHit(userID string, now time.Time) {
	s.mu.Lock()
	s.window[userID] = append(s.window[userID], now)
	s.mu.Unlock()
}

func (s *SuggestionService) cachedSuggestions(userID string) ([]models.Suggestion, bool) {
	v, found := s.suggestionCache.Get(userID)
	if !found {
		return nil, false
	}
	cached := v.([]models.Suggestion)

	// return a copy tagged as cache-sourced
	out := make([]models.Suggestion, len(cached))
	for i, sg := range cached {
		sg.Source = SourceCache
		out[i] = sg
	}
	return out, true
}

// GetSuggestions returns up to three suggestions for the user.
//
// Over-threshold requests inside the 30s window reuse the cached set
// when one is still live; without a cached set the request proceeds
// anyway. A live cached set is also served outside bursts, so repeated
// polling inside the 2-minute TTL costs nothing upstream.
func (s *SuggestionService) GetSuggestions(ctx context.Context, userID, moodHint string, opts CallOptions) ([]models.Suggestion, error) {
	now := s.now()

	if s.bursting(userID, now) {
		if cached, ok := s.cachedSuggestions(userID); ok {
			return cached, nil
		}
	}
	s.recordHit(userID, now)

	if cached, ok := s.cachedSuggestions(userID); ok {
		return cached, nil
	}

	snapshot := buildContextSnapshot(ctx, s.reader, userID, moodHint, now)

	suggestions := s.generate(ctx, userID, snapshot, opts)
	if len(suggestions) == 0 {
		suggestions = heuristicSuggestions(snapshot)
	}

	s.suggestionCache.SetDefault(userID, suggestions)
	return suggestions, nil
}

// generate runs the AI pipeline for suggestions. Any failure, including
// a quota denial, yields nil so the caller falls back to heuristics:
// suggestion polling must never surface an AI error to the dashboard.
func (s *SuggestionService) generate(ctx context.Context, userID string, snapshot models.ContextSnapshot, opts CallOptions) []models.Suggestion {
	req := models.AIRequest{
		SystemPrompt: "Você é o Synapse do Life OS. Gere no máximo 3 sugestões claras, cada uma com title, rationale (<=120 chars) e action_label (<=3 palavras). Use português. Retorne apenas JSON.",
		UserPrompt:   buildSuggestionPrompt(snapshot),
		Temperature:  0.5,
		JSONMode:     true,
	}

	raw, _, err := s.aiService.invoke(ctx, userID, FeatureSuggestions, models.TierSpeed, req, snapshot, opts, func(r json.RawMessage) error {
		_, verr := parseSuggestions(r)
		return verr
	})
	if err != nil {
		if !isDenial(err) {
			s.aiService.degrade(ctx, userID, FeatureSuggestions, err)
		}
		return nil
	}

	suggestions, _ := parseSuggestions(raw)
	return suggestions
}

func buildSuggestionPrompt(snapshot models.ContextSnapshot) string {
	var tasks strings.Builder
	for i, t := range snapshot.Tasks {
		if i == 5 {
			break
		}
		tasks.WriteString("- " + t.Title)
		if t.DueDate != "" {
			tasks.WriteString(" (due " + t.DueDate + ")")
		}
		if t.Energy != "" {
			tasks.WriteString(" [energy=" + t.Energy + "]")
		}
		tasks.WriteString("\n")
	}
	if tasks.Len() == 0 {
		tasks.WriteString("Nenhuma tarefa\n")
	}

	var habits strings.Builder
	for i, h := range snapshot.Habits {
		if i == 5 {
			break
		}
		habits.WriteString("- " + h.Title + "\n")
	}
	if habits.Len() == 0 {
		habits.WriteString("Nenhum hábito\n")
	}

	var txs strings.Builder
	for i, tx := range snapshot.Transactions {
		if i == 3 {
			break
		}
		txs.WriteString(fmt.Sprintf("- %s (R$ %.2f)", tx.Description, tx.Amount))
		if tx.Category != "" {
			txs.WriteString(" [" + tx.Category + "]")
		}
		txs.WriteString("\n")
	}
	if txs.Len() == 0 {
		txs.WriteString("Nenhum gasto recente\n")
	}

	readiness := "Sem readiness"
	if snapshot.Readiness > 0 {
		readiness = fmt.Sprintf("Readiness: %.0f", snapshot.Readiness)
	}
	hydration := "Sem hidratação"
	if snapshot.Hydration > 0 {
		hydration = fmt.Sprintf("Hidratação: %.0f", snapshot.Hydration)
	}
	mood := "Humor desconhecido"
	if snapshot.MoodHint != "" {
		mood = "Humor percebido: " + snapshot.MoodHint
	}

	return fmt.Sprintf(`Dia-parte: %s.
%s
Tarefas (Fluxo):
%s
Hábitos (Health):
%s
Gastos recentes (Finance):
%s
Sinais vitais:
- %s
- %s

Gere até 3 sugestões em JSON: [{"id":"...","title":"...","rationale":"...","action_label":"..."}]`,
		snapshot.DayPart, mood, tasks.String(), habits.String(), txs.String(), readiness, hydration)
}

// parseSuggestions validates and normalizes the model's suggestion
// array: entries without title or rationale are dropped, fields are
// clamped to display lengths, and at most three survive.
func parseSuggestions(raw json.RawMessage) ([]models.Suggestion, error) {
	var items []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Rationale   string `json:"rationale"`
		ActionLabel string `json:"action_label"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ai.ValidationError{Feature: FeatureSuggestions, Reason: "expected an array of suggestions"}
	}

	suggestions := make([]models.Suggestion, 0, maxSuggestionsPerSet)
	for i, item := range items {
		if strings.TrimSpace(item.Title) == "" || strings.TrimSpace(item.Rationale) == "" {
			continue
		}
		id := item.ID
		if id == "" {
			id = fmt.Sprintf("sg-%d", i)
		}
		label := item.ActionLabel
		if label == "" {
			label = "Agir"
		}
		suggestions = append(suggestions, models.Suggestion{
			ID:          id,
			Title:       clamp(item.Title, 80),
			Rationale:   clamp(item.Rationale, 140),
			ActionLabel: clamp(label, 24),
			Source:      SourceAI,
		})
		if len(suggestions) == maxSuggestionsPerSet {
			break
		}
	}
	if len(suggestions) == 0 {
		return nil, &ai.ValidationError{Feature: FeatureSuggestions, Reason: "no usable suggestions"}
	}
	return suggestions, nil
}

// clamp truncates to at most n bytes without splitting a UTF-8 rune,
// so accented Portuguese text stays valid after the cut.
func clamp(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
