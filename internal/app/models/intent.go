package models

// IntentAction is the closed set of things a free-text request can ask for.
type IntentAction string

const (
	ActionBulkGenerate    IntentAction = "BULK_GENERATE"
	ActionAddSingle       IntentAction = "ADD_SINGLE"
	ActionLaunchConcierge IntentAction = "LAUNCH_CONCIERGE"
	ActionUnknown         IntentAction = "UNKNOWN"
)

// ValidAction reports whether a is one of the four enumerated actions.
func ValidAction(a IntentAction) bool {
	switch a {
	case ActionBulkGenerate, ActionAddSingle, ActionLaunchConcierge, ActionUnknown:
		return true
	}
	return false
}

// ConciergeTool names a specialized search domain. Only meaningful when the
// action is LAUNCH_CONCIERGE, but the parser also records it for
// BULK_GENERATE requests so the orchestrator can route to venue lookup.
type ConciergeTool string

const (
	ToolDining        ConciergeTool = "dining"
	ToolBar           ConciergeTool = "bar"
	ToolNightclub     ConciergeTool = "nightclub"
	ToolMovie         ConciergeTool = "movie"
	ToolBook          ConciergeTool = "book"
	ToolGame          ConciergeTool = "game"
	ToolHotel         ConciergeTool = "hotel"
	ToolWellness      ConciergeTool = "wellness"
	ToolFitness       ConciergeTool = "fitness"
	ToolTheatre       ConciergeTool = "theatre"
	ToolSports        ConciergeTool = "sports"
	ToolHoliday       ConciergeTool = "holiday"
	ToolEscapeRoom    ConciergeTool = "escape_room"
	ToolWeekendEvents ConciergeTool = "weekend_events"
	ToolActivity      ConciergeTool = "activity"
)

// ContentFormat selects the downstream prompt template.
type ContentFormat string

const (
	FormatDefault           ContentFormat = "DEFAULT"
	FormatMarkdownRecipe    ContentFormat = "MARKDOWN_RECIPE"
	FormatMarkdownItinerary ContentFormat = "MARKDOWN_ITINERARY"
)

// DefaultQuantity is used whenever the classifier omits a count.
const DefaultQuantity = 5

// Intent is the parsed representation of one user request. It is created
// fresh per request, consumed once by the orchestrator and discarded.
type Intent struct {
	Action              IntentAction  `json:"action"`
	ConciergeTool       ConciergeTool `json:"conciergeTool,omitempty"`
	Quantity            int           `json:"quantity"`
	Topic               string        `json:"topic"`
	Location            string        `json:"location,omitempty"`
	Constraints         []string      `json:"constraints,omitempty"`
	TargetCategory      string        `json:"targetCategory,omitempty"`
	ContentFormat       ContentFormat `json:"contentFormat"`
	RequiresVenueLookup bool          `json:"requiresVenueLookup"`
	IsLocationDependent bool          `json:"isLocationDependent"`
}

// ValidCategories is the fixed set of category ids a jar idea can carry.
var ValidCategories = []string{
	"DINING",
	"NIGHTLIFE",
	"MOVIES",
	"BOOKS",
	"GAMES",
	"RECIPES",
	"TRAVEL",
	"OUTDOORS",
	"WELLNESS",
	"CULTURE",
	"SPORTS",
	"MUSIC",
	"EVENTS",
	"GENERAL",
}

// ValidCategory reports whether id is one of ValidCategories.
func ValidCategory(id string) bool {
	for _, c := range ValidCategories {
		if c == id {
			return true
		}
	}
	return false
}
