package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"lifeos/internal/ai"
	"lifeos/internal/models"
	"lifeos/internal/services"
)

// AIHandler exposes the AI feature calls over HTTP. Authentication lives
// upstream; the gateway places the authenticated user in X-User-ID.
type AIHandler struct {
	aiService         *services.AIService
	suggestionService *services.SuggestionService
}

func NewAIHandler(aiService *services.AIService, suggestionService *services.SuggestionService) *AIHandler {
	return &AIHandler{aiService: aiService, suggestionService: suggestionService}
}

func userID(c *fiber.Ctx) string {
	return c.Get("X-User-ID")
}

func callOptions(c *fiber.Ctx) services.CallOptions {
	return services.CallOptions{Force: c.Query("force") == "true"}
}

// RequireUser is the route-group middleware that rejects requests with
// no user identity.
func RequireUser(c *fiber.Ctx) error {
	if userID(c) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing user identity",
		})
	}
	return c.Next()
}

// featureError maps pipeline errors to HTTP. A quota denial is a 429
// with the typed payload; everything else that reached this point is a
// no-fallback feature failure, reported as a bad gateway.
func featureError(c *fiber.Ctx, err error) error {
	var quotaErr *ai.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return c.Status(fiber.StatusTooManyRequests).JSON(quotaErr)
	}
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// Ping reports the subsystem as alive.
// GET /api/ai/ping
func (h *AIHandler) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "active", "service": "lifeos-ai"})
}

// Chat answers a free-form message.
// POST /api/ai/chat
func (h *AIHandler) Chat(c *fiber.Ctx) error {
	uid := userID(c)

	var body struct {
		Message string `json:"message"`
		Context string `json:"context"`
		Mode    string `json:"mode"`
	}
	if err := c.BodyParser(&body); err != nil || body.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message required"})
	}

	tier := models.TierSpeed
	if body.Mode == string(models.TierDeepReason) {
		tier = models.TierDeepReason
	}

	resp, err := h.aiService.Chat(c.Context(), uid, body.Message, body.Context, tier, callOptions(c))
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(fiber.Map{"message": resp.Text, "model_used": resp.ModelUsed})
}

// Tags generates tags for content.
// POST /api/ai/tags
func (h *AIHandler) Tags(c *fiber.Ctx) error {
	uid := userID(c)

	var body struct {
		Context string `json:"context"`
		Type    string `json:"type"`
	}
	if err := c.BodyParser(&body); err != nil || body.Context == "" || body.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "context and type required"})
	}

	tags, source, err := h.aiService.GenerateTags(c.Context(), uid, body.Context, body.Type, callOptions(c))
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(fiber.Map{"tags": tags, "source": source})
}

// Swot generates a strategic analysis.
// POST /api/ai/swot
func (h *AIHandler) Swot(c *fiber.Ctx) error {
	uid := userID(c)

	var body struct {
		Context string `json:"context"`
	}
	if err := c.BodyParser(&body); err != nil || body.Context == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "context required"})
	}

	swot, source, err := h.aiService.GenerateSwot(c.Context(), uid, body.Context, callOptions(c))
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(fiber.Map{"swot": swot, "source": source})
}

// Plan generates a weekly plan.
// POST /api/ai/plan
func (h *AIHandler) Plan(c *fiber.Ctx) error {
	uid := userID(c)

	var body struct {
		Context string `json:"context"`
	}
	if err := c.BodyParser(&body); err != nil || body.Context == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "context required"})
	}

	plan, source, err := h.aiService.GenerateWeeklyPlan(c.Context(), uid, body.Context, callOptions(c))
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(fiber.Map{"plan": plan, "source": source})
}

// Summary generates a daily summary.
// POST /api/ai/summary
func (h *AIHandler) Summary(c *fiber.Ctx) error {
	uid := userID(c)

	var body struct {
		Context string `json:"context"`
	}
	if err := c.BodyParser(&body); err != nil || body.Context == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "context required"})
	}

	summary, source, err := h.aiService.GenerateDailySummary(c.Context(), uid, body.Context, callOptions(c))
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(fiber.Map{"summary": summary, "source": source})
}

// ParseTask parses a natural-language task line.
// POST /api/ai/parse-task
func (h *AIHandler) ParseTask(c *fiber.Ctx) error {
	uid := userID(c)

	var body struct {
		Input string `json:"input"`
	}
	if err := c.BodyParser(&body); err != nil || body.Input == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "input required"})
	}

	task, source, err := h.aiService.ParseTask(c.Context(), uid, body.Input, callOptions(c))
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(fiber.Map{"task": task, "source": source})
}

// Classify categorizes a finance transaction.
// POST /api/ai/classify
func (h *AIHandler) Classify(c *fiber.Ctx) error {
	uid := userID(c)

	var body struct {
		Description string `json:"description"`
	}
	if err := c.BodyParser(&body); err != nil || body.Description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "description required"})
	}

	category, source, err := h.aiService.ClassifyTransaction(c.Context(), uid, body.Description, callOptions(c))
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(fiber.Map{"category": category, "source": source})
}

// Suggestions returns dashboard suggestions.
// GET|POST /api/ai/suggestions
func (h *AIHandler) Suggestions(c *fiber.Ctx) error {
	uid := userID(c)

	mood := c.Query("mood")
	if c.Method() == fiber.MethodPost {
		var body struct {
			Mood string `json:"mood"`
		}
		if err := c.BodyParser(&body); err == nil && body.Mood != "" {
			mood = body.Mood
		}
	}

	suggestions, err := h.suggestionService.GetSuggestions(c.Context(), uid, mood, callOptions(c))
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(fiber.Map{"suggestions": suggestions})
}

// Recommendations returns habit recommendations.
// POST /api/ai/habit-recommendations
func (h *AIHandler) Recommendations(c *fiber.Ctx) error {
	uid := userID(c)

	var body struct {
		Context string `json:"context"`
	}
	if err := c.BodyParser(&body); err != nil || body.Context == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "context required"})
	}

	recs, source, err := h.aiService.GenerateHabitRecommendations(c.Context(), uid, body.Context, callOptions(c))
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(fiber.Map{"recommendations": recs, "source": source})
}

// Logs returns the user's recent usage records.
// GET /api/ai/logs
func (h *AIHandler) Logs(c *fiber.Ctx) error {
	uid := userID(c)

	logs, err := h.aiService.GetLogs(c.Context(), uid)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch logs"})
	}
	return c.JSON(logs)
}

// Register mounts the AI routes on the app.
func (h *AIHandler) Register(router fiber.Router) {
	router.Get("/ping", h.Ping)
	router.Use(RequireUser)
	router.Post("/chat", h.Chat)
	router.Post("/tags", h.Tags)
	router.Post("/swot", h.Swot)
	router.Post("/plan", h.Plan)
	router.Post("/summary", h.Summary)
	router.Post("/parse-task", h.ParseTask)
	router.Post("/classify", h.Classify)
	router.Get("/suggestions", h.Suggestions)
	router.Post("/suggestions", h.Suggestions)
	router.Post("/habit-recommendations", h.Recommendations)
	router.Get("/logs", h.Logs)
}
