package models

import (
	"encoding/json"
	"fmt"
)

// IdeaType is the closed set of canonical typed payloads an idea can carry.
type IdeaType string

const (
	IdeaTypeBook      IdeaType = "book"
	IdeaTypeMovie     IdeaType = "movie"
	IdeaTypeRecipe    IdeaType = "recipe"
	IdeaTypeGame      IdeaType = "game"
	IdeaTypeDining    IdeaType = "dining"
	IdeaTypeActivity  IdeaType = "activity"
	IdeaTypeMusic     IdeaType = "music"
	IdeaTypeEvent     IdeaType = "event"
	IdeaTypeTravel    IdeaType = "travel"
	IdeaTypeItinerary IdeaType = "itinerary"
)

// ValidIdeaType reports whether t names a known typed schema.
func ValidIdeaType(t IdeaType) bool {
	switch t {
	case IdeaTypeBook, IdeaTypeMovie, IdeaTypeRecipe, IdeaTypeGame,
		IdeaTypeDining, IdeaTypeActivity, IdeaTypeMusic, IdeaTypeEvent,
		IdeaTypeTravel, IdeaTypeItinerary:
		return true
	}
	return false
}

type BookData struct {
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	Genre     string `json:"genre,omitempty"`
	Year      int    `json:"year,omitempty"`
	PageCount int    `json:"pageCount,omitempty"`
	Format    string `json:"format,omitempty"`
}

type MovieData struct {
	Title    string   `json:"title,omitempty"`
	Year     int      `json:"year,omitempty"`
	Genre    string   `json:"genre,omitempty"`
	Director string   `json:"director,omitempty"`
	Cast     []string `json:"cast,omitempty"`
	Runtime  int      `json:"runtime,omitempty"`
	Platform string   `json:"platform,omitempty"`
}

type RecipeData struct {
	Ingredients  []string `json:"ingredients,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
	PrepTime     string   `json:"prepTime,omitempty"`
	CookTime     string   `json:"cookTime,omitempty"`
	Servings     int      `json:"servings,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
	Cuisine      string   `json:"cuisine,omitempty"`
	DietaryTags  []string `json:"dietaryTags,omitempty"`
}

type GameData struct {
	Title    string `json:"title,omitempty"`
	GameType string `json:"gameType,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Platform string `json:"platform,omitempty"`
	Players  string `json:"players,omitempty"`
	Rating   string `json:"rating,omitempty"`
	PlayURL  string `json:"playUrl,omitempty"`
}

type DiningData struct {
	EstablishmentName string   `json:"establishmentName,omitempty"`
	Cuisine           string   `json:"cuisine,omitempty"`
	MealType          string   `json:"mealType,omitempty"`
	PriceRange        string   `json:"priceRange,omitempty"`
	Rating            float64  `json:"rating,omitempty"`
	Features          []string `json:"features,omitempty"`
}

type ActivityData struct {
	ActivityName string `json:"activityName,omitempty"`
	ActivityType string `json:"activityType,omitempty"`
	Location     string `json:"location,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Participants string `json:"participants,omitempty"`
}

type MusicData struct {
	Artist string `json:"artist,omitempty"`
	Title  string `json:"title,omitempty"`
	Type   string `json:"type,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Year   int    `json:"year,omitempty"`
}

type EventData struct {
	EventName string `json:"eventName,omitempty"`
	EventType string `json:"eventType,omitempty"`
	Venue     string `json:"venue,omitempty"`
	Date      string `json:"date,omitempty"`
	TicketURL string `json:"ticketUrl,omitempty"`
}

type TravelData struct {
	Destination string   `json:"destination,omitempty"`
	TravelType  string   `json:"travelType,omitempty"`
	Amenities   []string `json:"amenities,omitempty"`
}

type ItineraryStep struct {
	Time     string `json:"time,omitempty"`
	Activity string `json:"activity,omitempty"`
	Location string `json:"location,omitempty"`
}

type ItineraryData struct {
	Title string          `json:"title,omitempty"`
	Steps []ItineraryStep `json:"steps,omitempty"`
}

// TypeData is the closed variant payload for an idea. Exactly one variant is
// populated, identified by Kind. On the wire the payload is a flat object
// whose schema depends on the idea type, so (de)serialization goes through
// DecodeTypeData / MarshalJSON rather than plain struct tags.
type TypeData struct {
	Kind IdeaType

	Book      *BookData
	Movie     *MovieData
	Recipe    *RecipeData
	Game      *GameData
	Dining    *DiningData
	Activity  *ActivityData
	Music     *MusicData
	Event     *EventData
	Travel    *TravelData
	Itinerary *ItineraryData
}

// variant returns the populated payload for the declared kind, or nil when
// the kind and payload disagree.
func (t *TypeData) variant() any {
	switch t.Kind {
	case IdeaTypeBook:
		if t.Book != nil {
			return t.Book
		}
	case IdeaTypeMovie:
		if t.Movie != nil {
			return t.Movie
		}
	case IdeaTypeRecipe:
		if t.Recipe != nil {
			return t.Recipe
		}
	case IdeaTypeGame:
		if t.Game != nil {
			return t.Game
		}
	case IdeaTypeDining:
		if t.Dining != nil {
			return t.Dining
		}
	case IdeaTypeActivity:
		if t.Activity != nil {
			return t.Activity
		}
	case IdeaTypeMusic:
		if t.Music != nil {
			return t.Music
		}
	case IdeaTypeEvent:
		if t.Event != nil {
			return t.Event
		}
	case IdeaTypeTravel:
		if t.Travel != nil {
			return t.Travel
		}
	case IdeaTypeItinerary:
		if t.Itinerary != nil {
			return t.Itinerary
		}
	}
	return nil
}

// Valid reports whether the payload matching Kind is populated.
func (t *TypeData) Valid() bool {
	return t != nil && t.variant() != nil
}

// MarshalJSON emits the active variant as a flat object.
func (t *TypeData) MarshalJSON() ([]byte, error) {
	v := t.variant()
	if v == nil {
		return nil, fmt.Errorf("type data has no payload for kind %q", t.Kind)
	}
	return json.Marshal(v)
}

// DecodeTypeData decodes a flat typeData object for the given idea type.
// Unknown types and malformed payloads return an error; callers repair via
// the standardizer rather than rejecting the record.
func DecodeTypeData(ideaType IdeaType, raw json.RawMessage) (*TypeData, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty typeData payload")
	}
	td := &TypeData{Kind: ideaType}
	var err error
	switch ideaType {
	case IdeaTypeBook:
		td.Book = &BookData{}
		err = json.Unmarshal(raw, td.Book)
	case IdeaTypeMovie:
		td.Movie = &MovieData{}
		err = json.Unmarshal(raw, td.Movie)
	case IdeaTypeRecipe:
		td.Recipe = &RecipeData{}
		err = json.Unmarshal(raw, td.Recipe)
	case IdeaTypeGame:
		td.Game = &GameData{}
		err = json.Unmarshal(raw, td.Game)
	case IdeaTypeDining:
		td.Dining = &DiningData{}
		err = json.Unmarshal(raw, td.Dining)
	case IdeaTypeActivity:
		td.Activity = &ActivityData{}
		err = json.Unmarshal(raw, td.Activity)
	case IdeaTypeMusic:
		td.Music = &MusicData{}
		err = json.Unmarshal(raw, td.Music)
	case IdeaTypeEvent:
		td.Event = &EventData{}
		err = json.Unmarshal(raw, td.Event)
	case IdeaTypeTravel:
		td.Travel = &TravelData{}
		err = json.Unmarshal(raw, td.Travel)
	case IdeaTypeItinerary:
		td.Itinerary = &ItineraryData{}
		err = json.Unmarshal(raw, td.Itinerary)
	default:
		return nil, fmt.Errorf("unknown idea type %q", ideaType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s typeData: %w", ideaType, err)
	}
	return td, nil
}
