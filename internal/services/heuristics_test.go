package services

import (
	"testing"

	"lifeos/internal/models"
)

func TestClassifyTransactionLocally(t *testing.T) {
	cases := []struct {
		description string
		want        string
	}{
		{"Compra no supermercado Extra", "groceries"},
		{"UBER *TRIP 1234", "transport"},
		{"Aluguel de março", "housing"},
		{"Mensalidade academia SmartFit", "health"},
		{"Salário outubro", "income"},
		{"Pagamento freelance projeto X", "income"},
		{"Transferência PIX sem descrição útil", "unknown"},
	}
	for _, tc := range cases {
		if got := classifyTransactionLocally(tc.description); got != tc.want {
			t.Errorf("classifyTransactionLocally(%q) = %q, want %q", tc.description, got, tc.want)
		}
	}
}

func TestHeuristicTags_AnchorsContentType(t *testing.T) {
	tags := heuristicTags("Treino de corrida e leitura antes de dormir", "habit")

	if len(tags) == 0 || tags[0] != "habit" {
		t.Fatalf("First tag should anchor the content type, got %v", tags)
	}
	if len(tags) > 5 {
		t.Errorf("Expected at most 5 tags, got %d", len(tags))
	}

	found := map[string]bool{}
	for _, tag := range tags {
		found[tag] = true
	}
	if !found["fitness"] || !found["reading"] {
		t.Errorf("Expected fitness and reading from keywords, got %v", tags)
	}
}

func TestHeuristicTags_NoKeywordMatches(t *testing.T) {
	tags := heuristicTags("zzz qqq", "task")
	if len(tags) != 1 || tags[0] != "task" {
		t.Errorf("Unmatched content still yields the anchor tag, got %v", tags)
	}
}

func TestHeuristicSummary_SplitsSentences(t *testing.T) {
	bullets := heuristicSummary("Acordei cedo. Treinei 40 minutos. Reunião longa à tarde. Jantar com a família.")
	if len(bullets) != 4 {
		t.Fatalf("Expected 4 bullets, got %d: %v", len(bullets), bullets)
	}
	if bullets[0] != "Acordei cedo" {
		t.Errorf("Unexpected first bullet: %q", bullets[0])
	}
}

func TestHeuristicSummary_NewlinesWinOverSentences(t *testing.T) {
	bullets := heuristicSummary("Manhã produtiva. Treinei.\nTarde de reuniões.")
	if len(bullets) != 2 {
		t.Fatalf("Expected 2 line bullets, got %d: %v", len(bullets), bullets)
	}
	if bullets[0] != "Manhã produtiva. Treinei" {
		t.Errorf("Unexpected first bullet: %q", bullets[0])
	}
}

func TestHeuristicSummary_TrailingNewlineFallsBackToSentences(t *testing.T) {
	bullets := heuristicSummary("Acordei cedo. Treinei 40 minutos.\n")
	if len(bullets) != 2 {
		t.Fatalf("Expected 2 sentence bullets, got %d: %v", len(bullets), bullets)
	}
}

func TestHeuristicSummary_CapsAtFive(t *testing.T) {
	bullets := heuristicSummary("a. b. c. d. e. f. g.")
	if len(bullets) > 5 {
		t.Errorf("Expected at most 5 bullets, got %d", len(bullets))
	}
}

func TestHeuristicSummary_NeverNil(t *testing.T) {
	if bullets := heuristicSummary(""); bullets == nil {
		t.Error("Empty input must yield an empty slice, not nil")
	}
}

func TestHeuristicParseTask(t *testing.T) {
	task := heuristicParseTask("Terminar relatório urgente hoje, precisa de foco")

	if task.Priority != models.PriorityHigh {
		t.Errorf("Expected high priority, got %q", task.Priority)
	}
	if task.Energy != models.EnergyHigh {
		t.Errorf("Expected high energy, got %q", task.Energy)
	}
	if task.DueHint != "today" {
		t.Errorf("Expected today hint, got %q", task.DueHint)
	}
	if task.Title == "" {
		t.Error("Title should carry the original line")
	}
}

func TestHeuristicParseTask_Defaults(t *testing.T) {
	task := heuristicParseTask("comprar pão")

	if task.Priority != models.PriorityMedium || task.Energy != models.EnergyMedium {
		t.Errorf("Expected medium defaults, got priority=%q energy=%q", task.Priority, task.Energy)
	}
	if task.DueHint != "" {
		t.Errorf("Expected no due hint, got %q", task.DueHint)
	}
}

func TestHeuristicParseTask_EmptyInput(t *testing.T) {
	task := heuristicParseTask("   ")
	if task.Title == "" {
		t.Error("Empty input still yields a usable title")
	}
}

func TestHeuristicSuggestions_Morning(t *testing.T) {
	snapshot := models.ContextSnapshot{
		DayPart:   "morning",
		Tasks:     []models.TaskSnapshot{{ID: "t1", Title: "Revisar proposta"}},
		Readiness: 80,
	}

	suggestions := heuristicSuggestions(snapshot)
	if len(suggestions) == 0 {
		t.Fatal("Morning with an open task should yield a suggestion")
	}
	if suggestions[0].Title != "Revisar proposta" {
		t.Errorf("Expected the top task, got %q", suggestions[0].Title)
	}
	if suggestions[0].Source != "heuristic" {
		t.Errorf("Expected heuristic source, got %q", suggestions[0].Source)
	}
}

func TestHeuristicSuggestions_LowReadinessFirst(t *testing.T) {
	snapshot := models.ContextSnapshot{
		DayPart:   "afternoon",
		Tasks:     []models.TaskSnapshot{{ID: "t1", Title: "Revisar proposta"}},
		Readiness: 30,
	}

	suggestions := heuristicSuggestions(snapshot)
	if len(suggestions) < 2 {
		t.Fatalf("Expected recovery plus task suggestions, got %v", suggestions)
	}
	if suggestions[0].ID != "h-recovery" {
		t.Errorf("Low readiness should push recovery to the front, got %q", suggestions[0].ID)
	}
}

func TestHeuristicSuggestions_MissingReadinessCountsAsLow(t *testing.T) {
	snapshot := models.ContextSnapshot{
		DayPart: "morning",
		Tasks:   []models.TaskSnapshot{{ID: "t1", Title: "Revisar proposta"}},
	}

	suggestions := heuristicSuggestions(snapshot)
	if len(suggestions) < 2 {
		t.Fatalf("Expected recovery plus task suggestions, got %v", suggestions)
	}
	if suggestions[0].ID != "h-recovery" {
		t.Errorf("Absent readiness should still lead with recovery, got %q", suggestions[0].ID)
	}
}

func TestHeuristicSuggestions_NeverNilAndCapped(t *testing.T) {
	if s := heuristicSuggestions(models.ContextSnapshot{}); s == nil {
		t.Error("Empty context yields an empty slice, not nil")
	}

	full := models.ContextSnapshot{
		DayPart:   "night",
		Tasks:     []models.TaskSnapshot{{ID: "t1", Title: "a"}, {ID: "t2", Title: "b"}},
		Readiness: 10,
	}
	if s := heuristicSuggestions(full); len(s) > 3 {
		t.Errorf("Expected at most 3 suggestions, got %d", len(s))
	}
}
