// Package concierge routes physical-venue intents to an external venue
// lookup capability and maps the results into draft idea records.
package concierge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/decisionjar/backend/internal/app/domain/intent"
	"github.com/decisionjar/backend/internal/app/models"
	"github.com/decisionjar/backend/internal/app/observability/metrics"
)

// LocalAreaPlaceholder stands in for a location when the request is
// location-dependent but no concrete location could be resolved.
const LocalAreaPlaceholder = "your local area"

// SearchRequest describes one venue search.
type SearchRequest struct {
	ToolType    models.ConciergeTool
	Location    string
	UserRequest string
	Count       int
}

// Venue is one raw result from the lookup provider.
type Venue struct {
	Name        string
	Description string
	Category    string
	PriceLevel  int
	Address     string
	Rating      float64
	Hours       string
	Website     string
	Photos      []string
}

// VenueLookup is the external search capability. The production
// implementation calls the Places API; tests substitute a fake.
type VenueLookup interface {
	Search(ctx context.Context, req SearchRequest) ([]Venue, error)
}

// Dispatcher resolves a location for a physical intent and runs the lookup.
type Dispatcher struct {
	lookup VenueLookup
	logger *zap.Logger
}

func NewDispatcher(lookup VenueLookup, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{lookup: lookup, logger: logger}
}

// RequiresVenueLookup reports whether in should route through venue search.
func RequiresVenueLookup(in models.Intent) bool {
	return in.RequiresVenueLookup && intent.PhysicalTools[in.ConciergeTool]
}

// LocationContext carries every location source available to a request, in
// descending priority.
type LocationContext struct {
	ClientLocation string
	UserHome       string
	JarDefault     string
}

// ResolveLocation picks the location a venue search should use. An intent
// that is not location-dependent gets no location at all; a dependent intent
// with no resolvable source gets the local-area placeholder.
func ResolveLocation(in models.Intent, lc LocationContext) string {
	if !in.IsLocationDependent {
		return ""
	}
	for _, candidate := range []string{in.Location, lc.ClientLocation, lc.UserHome, lc.JarDefault} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return LocalAreaPlaceholder
}

// Lookup runs the venue search for a physical intent and maps results into
// candidate ideas. Errors propagate; the orchestrator treats them as
// soft failures and falls through to generative output.
func (d *Dispatcher) Lookup(ctx context.Context, in models.Intent, location string) ([]models.CandidateIdea, error) {
	ctx, span := otel.Tracer("ConciergeDispatcher").Start(ctx, "Lookup", trace.WithAttributes(
		attribute.String("tool", string(in.ConciergeTool)),
		attribute.Int("count", in.Quantity),
	))
	defer span.End()

	if d.lookup == nil {
		err := fmt.Errorf("no venue lookup provider configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Venue lookup unavailable")
		return nil, err
	}

	venues, err := d.lookup.Search(ctx, SearchRequest{
		ToolType:    in.ConciergeTool,
		Location:    location,
		UserRequest: in.Topic,
		Count:       in.Quantity,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Venue lookup failed")
		return nil, fmt.Errorf("venue lookup for %s: %w", in.ConciergeTool, err)
	}

	ideas := MapVenues(venues, in.ConciergeTool, location)
	metrics.RecordVenueLookup(ctx, string(in.ConciergeTool), len(ideas))
	span.SetAttributes(attribute.Int("venues.count", len(ideas)))
	span.SetStatus(codes.Ok, "Venues mapped")
	d.logger.Info("Venue lookup completed",
		zap.String("tool", string(in.ConciergeTool)),
		zap.String("location", location),
		zap.Int("results", len(ideas)))
	return ideas, nil
}

// venue defaults: a venue visit is an indoor, roughly two-hour outing unless
// the provider says otherwise.
const venueDefaultDuration = 2.0

// MapVenues converts raw venues into candidate ideas carrying both the flat
// display fields and a typed payload.
func MapVenues(venues []Venue, tool models.ConciergeTool, location string) []models.CandidateIdea {
	ideas := make([]models.CandidateIdea, 0, len(venues))
	indoor := true
	for _, v := range venues {
		duration := models.FlexFloat(venueDefaultDuration)
		rating := models.FlexFloat(v.Rating)
		idea := models.CandidateIdea{
			Title:         v.Name,
			Description:   venueDescription(v),
			Category:      toolCategory(tool),
			Indoor:        &indoor,
			Duration:      &duration,
			Cost:          priceTier(v.PriceLevel),
			ActivityLevel: models.ActivityLow,
			Details:       venueDetails(v),
			Address:       v.Address,
			Website:       v.Website,
			GoogleRating:  &rating,
			PhotoURLs:     v.Photos,
			IdeaType:      toolIdeaType(tool),
			TypeData:      venueTypeData(v, tool, location),
		}
		ideas = append(ideas, idea)
	}
	return ideas
}

func venueDescription(v Venue) string {
	if v.Description != "" {
		return v.Description
	}
	if v.Category != "" {
		return fmt.Sprintf("%s — %s", v.Category, v.Address)
	}
	return v.Address
}

// venueDetails renders a small markdown blob for display in the idea card.
func venueDetails(v Venue) string {
	var b strings.Builder
	if v.Address != "" {
		fmt.Fprintf(&b, "**Address:** %s\n", v.Address)
	}
	if v.Rating > 0 {
		fmt.Fprintf(&b, "**Rating:** %.1f/5\n", v.Rating)
	}
	if v.Hours != "" {
		fmt.Fprintf(&b, "**Hours:** %s\n", v.Hours)
	}
	if v.Website != "" {
		fmt.Fprintf(&b, "**Website:** %s\n", v.Website)
	}
	return b.String()
}

func priceTier(level int) string {
	switch {
	case level <= 1:
		return models.Cost1
	case level == 2:
		return models.Cost2
	case level == 3:
		return models.Cost3
	default:
		return models.Cost4
	}
}

func toolCategory(tool models.ConciergeTool) string {
	switch tool {
	case models.ToolDining:
		return "DINING"
	case models.ToolBar, models.ToolNightclub:
		return "NIGHTLIFE"
	case models.ToolHotel:
		return "TRAVEL"
	case models.ToolWellness:
		return "WELLNESS"
	case models.ToolTheatre:
		return "CULTURE"
	case models.ToolSports:
		return "SPORTS"
	case models.ToolWeekendEvents:
		return "EVENTS"
	default:
		return "GENERAL"
	}
}

func toolIdeaType(tool models.ConciergeTool) models.IdeaType {
	switch tool {
	case models.ToolDining, models.ToolBar, models.ToolNightclub:
		return models.IdeaTypeDining
	case models.ToolHotel, models.ToolHoliday:
		return models.IdeaTypeTravel
	case models.ToolTheatre, models.ToolWeekendEvents:
		return models.IdeaTypeEvent
	default:
		return models.IdeaTypeActivity
	}
}

// venueTypeData builds the typed payload for a venue. The same facts are
// written under every schema's key names (establishmentName, activityName,
// eventName, destination, title, …) so that whichever idea type the record
// is later classified as, its fields are already present. Each variant
// decoder ignores the keys it does not know.
func venueTypeData(v Venue, tool models.ConciergeTool, location string) json.RawMessage {
	payload := map[string]any{
		"title":             v.Name,
		"establishmentName": v.Name,
		"activityName":      v.Name,
		"eventName":         v.Name,
		"cuisine":           v.Category,
		"activityType":      v.Category,
		"eventType":         v.Category,
		"priceRange":        priceTier(v.PriceLevel),
		"location":          firstNonEmpty(v.Address, location),
		"venue":             firstNonEmpty(v.Address, v.Name),
		"destination":       firstNonEmpty(location, v.Address),
		"travelType":        string(tool),
	}
	if v.Rating > 0 {
		payload["rating"] = v.Rating
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return raw
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
