package ideatype

import (
	"encoding/json"
	"strings"

	"github.com/decisionjar/backend/internal/app/models"
)

// Record is the normalized input to the content-based standardizer.
type Record struct {
	Category     string
	Title        string
	Description  string
	Details      string
	ExplicitType models.IdeaType
	ExplicitData json.RawMessage
}

// Standardize produces best-effort structured data for a record. Explicit,
// valid typed data is returned untouched; otherwise the payload is rebuilt
// from category keywords and content heuristics. Returns nil when no type
// can be determined — callers must accept that gracefully, never reject the
// record.
func Standardize(rec Record) *models.TypeData {
	if models.ValidIdeaType(rec.ExplicitType) && len(rec.ExplicitData) > 0 {
		if td, err := models.DecodeTypeData(rec.ExplicitType, rec.ExplicitData); err == nil && td.Valid() {
			return td
		}
	}

	ideaType := rec.ExplicitType
	if !models.ValidIdeaType(ideaType) {
		ideaType = InferType(rec.Category, rec.Title)
	}
	if ideaType == "" {
		ideaType = inferFromContent(rec)
	}
	if ideaType == "" {
		return nil
	}
	return build(ideaType, rec)
}

// inferFromContent is the last inference layer: scan the free text for
// type-revealing phrasing when the category told us nothing.
func inferFromContent(rec Record) models.IdeaType {
	text := strings.ToLower(rec.Description + " " + rec.Details)
	switch {
	case strings.Contains(text, "ingredient") || strings.Contains(text, "preheat"):
		return models.IdeaTypeRecipe
	case strings.Contains(text, "directed by") || strings.Contains(text, "starring"):
		return models.IdeaTypeMovie
	case strings.Contains(text, "author") || strings.Contains(text, "novel"):
		return models.IdeaTypeBook
	case strings.Contains(text, "player") || strings.Contains(text, "board game"):
		return models.IdeaTypeGame
	case strings.Contains(text, "menu") || strings.Contains(text, "cuisine") || strings.Contains(text, "reservation"):
		return models.IdeaTypeDining
	case strings.Contains(text, "album") || strings.Contains(text, "playlist"):
		return models.IdeaTypeMusic
	case strings.Contains(text, "ticket") || strings.Contains(text, "festival"):
		return models.IdeaTypeEvent
	case strings.Contains(text, "itinerary") || strings.Contains(text, "day trip"):
		return models.IdeaTypeItinerary
	case strings.Contains(text, "flight") || strings.Contains(text, "getaway"):
		return models.IdeaTypeTravel
	}
	return ""
}

func build(ideaType models.IdeaType, rec Record) *models.TypeData {
	td := &models.TypeData{Kind: ideaType}
	switch ideaType {
	case models.IdeaTypeBook:
		td.Book = &models.BookData{Title: rec.Title, Genre: genreHint(rec)}
	case models.IdeaTypeMovie:
		td.Movie = &models.MovieData{Title: rec.Title, Genre: genreHint(rec)}
	case models.IdeaTypeRecipe:
		td.Recipe = &models.RecipeData{
			Ingredients:  extractListSection(rec.Details, "ingredient"),
			Instructions: extractListSection(rec.Details, "instruction"),
			Cuisine:      cuisineHint(rec),
		}
	case models.IdeaTypeGame:
		td.Game = &models.GameData{Title: rec.Title}
	case models.IdeaTypeDining:
		td.Dining = &models.DiningData{
			EstablishmentName: rec.Title,
			Cuisine:           cuisineHint(rec),
		}
	case models.IdeaTypeActivity:
		td.Activity = &models.ActivityData{
			ActivityName: rec.Title,
			ActivityType: DisplayCategory(rec.Category),
		}
	case models.IdeaTypeMusic:
		td.Music = &models.MusicData{Title: rec.Title}
	case models.IdeaTypeEvent:
		td.Event = &models.EventData{EventName: rec.Title}
	case models.IdeaTypeTravel:
		td.Travel = &models.TravelData{Destination: rec.Title}
	case models.IdeaTypeItinerary:
		td.Itinerary = &models.ItineraryData{Title: rec.Title}
	}
	if !td.Valid() {
		return nil
	}
	return td
}

// cuisines recognized when backfilling dining/recipe payloads from text.
var knownCuisines = []string{
	"italian", "japanese", "thai", "chinese", "mexican", "indian", "french",
	"greek", "korean", "vietnamese", "spanish", "turkish", "lebanese",
	"ethiopian", "american", "asian", "mediterranean",
}

func cuisineHint(rec Record) string {
	text := strings.ToLower(rec.Title + " " + rec.Category + " " + rec.Description)
	for _, c := range knownCuisines {
		if strings.Contains(text, c) {
			return strings.ToUpper(c[:1]) + c[1:]
		}
	}
	return ""
}

func genreHint(rec Record) string {
	text := strings.ToLower(rec.Description)
	for _, g := range []string{"thriller", "comedy", "drama", "horror", "romance", "fantasy", "sci-fi", "mystery", "documentary"} {
		if strings.Contains(text, g) {
			return strings.ToUpper(g[:1]) + g[1:]
		}
	}
	return ""
}

// extractListSection pulls bullet or numbered lines that follow a heading
// containing the given keyword out of a markdown details blob.
func extractListSection(details, headingKeyword string) []string {
	if details == "" {
		return nil
	}
	var items []string
	inSection := false
	for _, line := range strings.Split(details, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		isHeading := strings.HasPrefix(trimmed, "#") || strings.HasSuffix(trimmed, ":")
		if isHeading {
			inSection = strings.Contains(lower, headingKeyword)
			continue
		}
		if !inSection || trimmed == "" {
			continue
		}
		item := strings.TrimLeft(trimmed, "-*0123456789. )")
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
