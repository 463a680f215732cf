package intent

import (
	"regexp"
	"strconv"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/decisionjar/backend/internal/app/models"
)

// PhysicalTools are the concierge domains that need a real address to be
// useful, and therefore route through venue lookup.
var PhysicalTools = map[models.ConciergeTool]bool{
	models.ToolDining:        true,
	models.ToolBar:           true,
	models.ToolNightclub:     true,
	models.ToolActivity:      true,
	models.ToolFitness:       true,
	models.ToolWellness:      true,
	models.ToolTheatre:       true,
	models.ToolSports:        true,
	models.ToolEscapeRoom:    true,
	models.ToolWeekendEvents: true,
	models.ToolHotel:         true,
}

// toolPatterns maps surface phrases to concierge tools. Ordering matters only
// for building the flat pattern list; matching uses leftmost-longest, so
// "escape room" beats "game" when both appear.
var toolPatterns = []struct {
	tool     models.ConciergeTool
	phrases  []string
	category string
}{
	{models.ToolDining, []string{
		"restaurant", "dinner", "lunch", "brunch", "breakfast", "eat out",
		"takeaway", "food", "cuisine", "pizza", "sushi", "ramen", "tacos",
		"italian", "japanese", "thai", "mexican", "indian", "chinese",
	}, "DINING"},
	{models.ToolBar, []string{"bar", "pub", "cocktail", "drinks", "wine bar", "brewery"}, "NIGHTLIFE"},
	{models.ToolNightclub, []string{"nightclub", "club night", "dancing", "dance floor"}, "NIGHTLIFE"},
	{models.ToolMovie, []string{"movie", "film", "cinema", "watch something", "series", "show to watch"}, "MOVIES"},
	{models.ToolBook, []string{"book", "novel", "read", "reading"}, "BOOKS"},
	{models.ToolGame, []string{"game", "board game", "video game", "card game"}, "GAMES"},
	{models.ToolHotel, []string{"hotel", "staycation", "accommodation", "place to stay"}, "TRAVEL"},
	{models.ToolWellness, []string{"spa", "massage", "wellness", "sauna", "meditation"}, "WELLNESS"},
	{models.ToolFitness, []string{"gym", "workout", "fitness", "yoga", "pilates", "climbing"}, "OUTDOORS"},
	{models.ToolTheatre, []string{"theatre", "theater", "musical", "play to see", "opera"}, "CULTURE"},
	{models.ToolSports, []string{"sports", "match", "stadium", "golf", "tennis", "bowling"}, "SPORTS"},
	{models.ToolHoliday, []string{"holiday", "vacation", "getaway", "trip to", "travel to"}, "TRAVEL"},
	{models.ToolEscapeRoom, []string{"escape room", "puzzle room"}, "GAMES"},
	{models.ToolWeekendEvents, []string{"this weekend", "event", "festival", "whats on", "what's on"}, "EVENTS"},
	{models.ToolActivity, []string{"activity", "activities", "something to do", "date idea", "things to do"}, "GENERAL"},
}

var (
	keywordMatcher ahocorasick.AhoCorasick
	// patternOwner[i] is the toolPatterns group that contributed pattern i.
	patternOwner []int
)

func init() {
	var patterns []string
	for gi, group := range toolPatterns {
		for _, p := range group.phrases {
			patterns = append(patterns, p)
			patternOwner = append(patternOwner, gi)
		}
	}
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
		DFA:                  true,
	})
	keywordMatcher = builder.Build(patterns)
}

var quantityPattern = regexp.MustCompile(`\b(\d{1,3})\b`)

// FallbackIntent is the deterministic classifier used when the model chain is
// unreachable. It only ever produces BULK_GENERATE: without the model we
// cannot tell a single-add from a search, so we take the most forgiving
// action. It must never panic regardless of input.
func FallbackIntent(promptText string) models.Intent {
	intent := models.Intent{
		Action:        models.ActionBulkGenerate,
		Quantity:      models.DefaultQuantity,
		Topic:         strings.TrimSpace(promptText),
		ContentFormat: models.FormatDefault,
	}

	if m := quantityPattern.FindStringSubmatch(promptText); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 {
			intent.Quantity = n
		}
	}

	matches := keywordMatcher.FindAll(promptText)
	if len(matches) > 0 {
		group := toolPatterns[patternOwner[matches[0].Pattern()]]
		intent.ConciergeTool = group.tool
		intent.TargetCategory = group.category
	}

	intent.RequiresVenueLookup = PhysicalTools[intent.ConciergeTool]
	intent.IsLocationDependent = intent.RequiresVenueLookup
	return intent
}
