// Package ideatype normalizes heterogeneous AI output into the closed set of
// canonical idea types and their structured payloads.
package ideatype

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/decisionjar/backend/internal/app/models"
)

var categorySeparators = regexp.MustCompile(`[\s\-_]+`)

// NormalizeCategory uppercases a category string and collapses whitespace,
// hyphens and underscores to single spaces.
func NormalizeCategory(category string) string {
	normalized := strings.ToUpper(strings.TrimSpace(category))
	return categorySeparators.ReplaceAllString(normalized, " ")
}

// DisplayCategory renders a category id for human-facing output.
func DisplayCategory(category string) string {
	return cases.Title(language.English).String(strings.ToLower(NormalizeCategory(category)))
}

// keyword → type table applied to normalized categories. Order within a
// group is irrelevant; the first group containing a match wins.
var typeKeywords = []struct {
	ideaType models.IdeaType
	keywords []string
}{
	{models.IdeaTypeDining, []string{
		"RESTAURANT", "FOOD", "BRUNCH", "LUNCH", "DINNER", "BREAKFAST",
		"CAFE", "BAKERY", "BAR", "PUB", "NIGHTLIFE", "COCKTAIL", "WINE",
		"FINE DINING", "CASUAL", "FAST FOOD", "INTERNATIONAL",
	}},
	{models.IdeaTypeMovie, []string{"MOVIE", "CINEMA", "STREAMING", "SERIES"}},
	{models.IdeaTypeGame, []string{"GAME", "GAMING"}},
	{models.IdeaTypeBook, []string{"BOOK", "READING"}},
	{models.IdeaTypeRecipe, []string{"RECIPE", "COOKING"}},
	{models.IdeaTypeActivity, []string{"GOLF", "SPORT", "TENNIS", "BOWLING"}},
}

// InferType maps a category (and optionally a title) to a canonical idea
// type via a deterministic keyword table. Returns "" when nothing matches;
// the caller falls back to the content-based standardizer.
func InferType(category, title string) models.IdeaType {
	haystack := NormalizeCategory(category)
	if title != "" {
		haystack += " " + NormalizeCategory(title)
	}
	for _, group := range typeKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(haystack, kw) {
				return group.ideaType
			}
		}
	}
	return ""
}
