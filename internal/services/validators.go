package services

import (
	"encoding/json"
	"strings"

	"lifeos/internal/ai"
	"lifeos/internal/models"
)

// Per-feature output schema checks. Each validator receives the JSON
// payload already extracted from the raw model text and decides whether
// it matches the shape downstream consumers rely on. A failure routes the
// call to the heuristic path exactly like a provider outage would.

func validateTags(raw json.RawMessage) ([]string, error) {
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, &ai.ValidationError{Feature: "tags", Reason: "expected an array of strings"}
	}
	if len(tags) == 0 {
		return nil, &ai.ValidationError{Feature: "tags", Reason: "empty tag list"}
	}

	out := make([]string, 0, 5)
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		out = append(out, t)
		if len(out) == 5 {
			break
		}
	}
	if len(out) == 0 {
		return nil, &ai.ValidationError{Feature: "tags", Reason: "no usable tags"}
	}
	return out, nil
}

func validateSwot(raw json.RawMessage) (*models.Swot, error) {
	var swot models.Swot
	if err := json.Unmarshal(raw, &swot); err != nil {
		return nil, &ai.ValidationError{Feature: "swot", Reason: "expected an object with four string arrays"}
	}
	// all four categories must be present; a missing quadrant is not a
	// valid analysis
	if swot.Strengths == nil || swot.Weaknesses == nil || swot.Opportunities == nil || swot.Threats == nil {
		return nil, &ai.ValidationError{Feature: "swot", Reason: "missing one or more categories"}
	}
	return &swot, nil
}

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

func validateWeeklyPlan(raw json.RawMessage) (models.WeeklyPlan, error) {
	var plan models.WeeklyPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, &ai.ValidationError{Feature: "weekly-plan", Reason: "expected a weekday-to-items object"}
	}
	if len(plan) == 0 {
		return nil, &ai.ValidationError{Feature: "weekly-plan", Reason: "empty plan"}
	}
	for day, items := range plan {
		if !weekdays[strings.ToLower(day)] {
			return nil, &ai.ValidationError{Feature: "weekly-plan", Reason: "unknown weekday " + day}
		}
		if items == nil {
			return nil, &ai.ValidationError{Feature: "weekly-plan", Reason: "null items for " + day}
		}
	}
	return plan, nil
}

func validateSummary(raw json.RawMessage) ([]string, error) {
	var bullets []string
	if err := json.Unmarshal(raw, &bullets); err != nil {
		return nil, &ai.ValidationError{Feature: "daily-summary", Reason: "expected an array of strings"}
	}
	if len(bullets) == 0 {
		return nil, &ai.ValidationError{Feature: "daily-summary", Reason: "empty summary"}
	}
	if len(bullets) > 5 {
		bullets = bullets[:5]
	}
	return bullets, nil
}

var validLevels = map[string]bool{
	models.PriorityLow: true, models.PriorityMedium: true, models.PriorityHigh: true,
}

func validateParsedTask(raw json.RawMessage) (*models.ParsedTask, error) {
	var task models.ParsedTask
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, &ai.ValidationError{Feature: "parse-task", Reason: "expected a task object"}
	}
	task.Title = strings.TrimSpace(task.Title)
	task.Priority = strings.ToLower(strings.TrimSpace(task.Priority))
	task.Energy = strings.ToLower(strings.TrimSpace(task.Energy))

	if task.Title == "" {
		return nil, &ai.ValidationError{Feature: "parse-task", Reason: "missing title"}
	}
	if !validLevels[task.Priority] {
		return nil, &ai.ValidationError{Feature: "parse-task", Reason: "priority must be low/medium/high"}
	}
	if !validLevels[task.Energy] {
		return nil, &ai.ValidationError{Feature: "parse-task", Reason: "energy must be low/medium/high"}
	}
	return &task, nil
}

func validateCategory(raw json.RawMessage) (string, error) {
	// accept either a bare string or {"category": "..."}
	var category string
	if err := json.Unmarshal(raw, &category); err != nil {
		var obj struct {
			Category string `json:"category"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil || obj.Category == "" {
			return "", &ai.ValidationError{Feature: "classify-transaction", Reason: "expected a category"}
		}
		category = obj.Category
	}
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return "", &ai.ValidationError{Feature: "classify-transaction", Reason: "empty category"}
	}
	return category, nil
}

func validateRecommendations(raw json.RawMessage) ([]models.HabitRecommendation, error) {
	var recs []models.HabitRecommendation
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, &ai.ValidationError{Feature: "habit-recommendations", Reason: "expected an array of recommendations"}
	}

	out := make([]models.HabitRecommendation, 0, 3)
	for _, r := range recs {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		out = append(out, r)
		if len(out) == 3 {
			break
		}
	}
	if len(out) == 0 {
		return nil, &ai.ValidationError{Feature: "habit-recommendations", Reason: "no usable recommendations"}
	}
	return out, nil
}
