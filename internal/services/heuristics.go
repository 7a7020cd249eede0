package services

import (
	"strings"

	"lifeos/internal/models"
)

// Deterministic, fully offline approximations used when the AI path is
// unavailable, errored, or produced an invalid shape. Every generator
// returns a value shape-compatible with the successful AI output (empty
// slices, never nil) and never fails.

// transactionRules maps description keywords to finance categories.
// Portuguese keywords carried over from the legacy classifier.
var transactionRules = []struct {
	keyword  string
	category string
}{
	{"market", "groceries"},
	{"mercado", "groceries"},
	{"supermercado", "groceries"},
	{"uber", "transport"},
	{"gasolina", "transport"},
	{"aluguel", "housing"},
	{"academia", "health"},
	{"farmácia", "health"},
	{"farmacia", "health"},
	{"salário", "income"},
	{"salario", "income"},
	{"freelance", "income"},
}

// classifyTransactionLocally matches a transaction description against
// the keyword table. Returns "unknown" when nothing matches.
func classifyTransactionLocally(description string) string {
	d := strings.ToLower(description)
	for _, rule := range transactionRules {
		if strings.Contains(d, rule.keyword) {
			return rule.category
		}
	}
	return "unknown"
}

// tagVocabulary maps content keywords to canonical tags per content type.
var tagVocabulary = map[string][]struct {
	keyword string
	tag     string
}{
	"habit": {
		{"treino", "fitness"}, {"corrida", "fitness"}, {"gym", "fitness"},
		{"medita", "mindfulness"}, {"leitura", "reading"}, {"read", "reading"},
		{"água", "hydration"}, {"sono", "sleep"}, {"sleep", "sleep"},
	},
	"task": {
		{"reunião", "meeting"}, {"meeting", "meeting"}, {"email", "communication"},
		{"relatório", "report"}, {"report", "report"}, {"estudo", "study"},
		{"deploy", "engineering"}, {"bug", "engineering"},
	},
	"journal": {
		{"grato", "gratitude"}, {"ansied", "anxiety"}, {"feliz", "mood"},
		{"cansad", "energy"}, {"trabalho", "work"}, {"família", "family"},
	},
	"finance": {
		{"mercado", "groceries"}, {"uber", "transport"}, {"aluguel", "housing"},
		{"academia", "health"}, {"salário", "income"}, {"restaurante", "dining"},
	},
}

// heuristicTags extracts up to five tags from content by keyword match,
// always including the content type itself as an anchor tag.
func heuristicTags(content, contentType string) []string {
	tags := []string{contentType}
	seen := map[string]bool{contentType: true}

	lower := strings.ToLower(content)
	for _, entry := range tagVocabulary[contentType] {
		if len(tags) >= 5 {
			break
		}
		if strings.Contains(lower, entry.keyword) && !seen[entry.tag] {
			tags = append(tags, entry.tag)
			seen[entry.tag] = true
		}
	}
	return tags
}

// heuristicSummary reduces free text to at most five bullet sentences.
// Lines win over sentence terminators; a separator only counts when it
// actually splits the text into more than one piece.
func heuristicSummary(content string) []string {
	parts := []string{content}
	for _, sep := range []string{"\n", ". ", "! ", "? "} {
		split := strings.Split(content, sep)
		nonEmpty := 0
		for _, p := range split {
			if strings.TrimSpace(p) != "" {
				nonEmpty++
			}
		}
		if nonEmpty > 1 {
			parts = split
			break
		}
	}

	bullets := []string{}
	for _, part := range parts {
		part = strings.TrimSpace(strings.TrimRight(part, ".!?"))
		if part == "" {
			continue
		}
		bullets = append(bullets, part)
		if len(bullets) >= 5 {
			break
		}
	}
	return bullets
}

// heuristicParseTask derives structured task fields from a free-form
// line with simple keyword rules.
func heuristicParseTask(input string) models.ParsedTask {
	lower := strings.ToLower(input)

	priority := models.PriorityMedium
	switch {
	case containsAny(lower, "urgent", "urgente", "asap", "importante", "important"):
		priority = models.PriorityHigh
	case containsAny(lower, "depois", "someday", "quando der", "low"):
		priority = models.PriorityLow
	}

	energy := models.EnergyMedium
	switch {
	case containsAny(lower, "foco", "focus", "deep", "estudar", "escrever"):
		energy = models.EnergyHigh
	case containsAny(lower, "rápido", "rapido", "quick", "simples", "ligar"):
		energy = models.EnergyLow
	}

	dueHint := ""
	switch {
	case containsAny(lower, "hoje", "today"):
		dueHint = "today"
	case containsAny(lower, "amanhã", "amanha", "tomorrow"):
		dueHint = "tomorrow"
	case containsAny(lower, "semana que vem", "next week"):
		dueHint = "next-week"
	}

	title := strings.TrimSpace(input)
	if title == "" {
		title = "Nova tarefa"
	}

	return models.ParsedTask{
		Title:    title,
		Priority: priority,
		Energy:   energy,
		DueHint:  dueHint,
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// heuristicSuggestions builds up to three day-part suggestions from the
// context snapshot. Low readiness pushes a recovery suggestion to the
// front.
func heuristicSuggestions(ctx models.ContextSnapshot) []models.Suggestion {
	suggestions := []models.Suggestion{}

	var topTask *models.TaskSnapshot
	if len(ctx.Tasks) > 0 {
		topTask = &ctx.Tasks[0]
	}

	switch ctx.DayPart {
	case "morning":
		if topTask != nil {
			suggestions = append(suggestions, models.Suggestion{
				ID:          "h-" + topTask.ID,
				Title:       topTask.Title,
				Rationale:   "Comece com foco curto agora.",
				ActionLabel: "Foco",
				Source:      "heuristic",
			})
		}
	case "afternoon":
		if topTask != nil {
			suggestions = append(suggestions, models.Suggestion{
				ID:          "h-exec-" + topTask.ID,
				Title:       topTask.Title,
				Rationale:   "Execução guiada com pausa planejada.",
				ActionLabel: "Executar",
				Source:      "heuristic",
			})
		}
	case "night":
		suggestions = append(suggestions, models.Suggestion{
			ID:          "h-reflect",
			Title:       "Refletir e fechar loops",
			Rationale:   "Anote 3 linhas e planeje amanhã.",
			ActionLabel: "Refletir",
			Source:      "heuristic",
		})
	}

	// Missing readiness reads as zero, which also counts as low: with no
	// recovery signal at all the safe default is to suggest recovering.
	if ctx.Readiness < 40 {
		suggestions = append([]models.Suggestion{{
			ID:          "h-recovery",
			Title:       "Recuperar antes de forçar",
			Rationale:   "Carga alta detectada, priorize descanso curto.",
			ActionLabel: "Recuperar",
			Source:      "heuristic",
		}}, suggestions...)
	}

	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}
