package concierge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/decisionjar/backend/internal/app/models"
)

const placesEndpoint = "https://maps.googleapis.com/maps/api/place/textsearch/json"

// PlacesClient implements VenueLookup against the Places text-search API.
// Responses are cached briefly so a group refining the same request does not
// burn quota.
type PlacesClient struct {
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
	group      singleflight.Group
	logger     *zap.Logger
}

func NewPlacesClient(apiKey string, logger *zap.Logger) *PlacesClient {
	return &PlacesClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache.New(5*time.Minute, 10*time.Minute),
		logger:     logger,
	}
}

type placesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		Rating           float64 `json:"rating"`
		PriceLevel       int     `json:"price_level"`
		Types            []string `json:"types"`
		Photos           []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
		OpeningHours *struct {
			OpenNow bool `json:"open_now"`
		} `json:"opening_hours"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Search runs a text search combining the tool's base query, the user's
// phrasing and the resolved location.
func (p *PlacesClient) Search(ctx context.Context, req SearchRequest) ([]Venue, error) {
	ctx, span := otel.Tracer("PlacesClient").Start(ctx, "Search")
	defer span.End()

	query := buildQuery(req)
	span.SetAttributes(attribute.String("places.query", query))

	if cached, found := p.cache.Get(query); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "Search completed (cached)")
		return limitVenues(cached.([]Venue), req.Count), nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	// Concurrent identical searches collapse into one upstream call.
	result, err, _ := p.group.Do(query, func() (any, error) {
		return p.fetch(ctx, query)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Places request failed")
		return nil, err
	}
	venues := result.([]Venue)

	p.cache.Set(query, venues, cache.DefaultExpiration)
	p.logger.Info("Places search completed",
		zap.String("query", query),
		zap.Int("results", len(venues)))
	span.SetAttributes(attribute.Int("places.results", len(venues)))
	span.SetStatus(codes.Ok, "Search completed")
	return limitVenues(venues, req.Count), nil
}

func (p *PlacesClient) fetch(ctx context.Context, query string) ([]Venue, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", p.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, placesEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build places request: %w", err)
	}
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places API returned status %d", resp.StatusCode)
	}

	var body placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}
	// ZERO_RESULTS is a valid empty answer, not an error.
	if body.Status != "OK" && body.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places API status %s: %s", body.Status, body.ErrorMessage)
	}

	venues := make([]Venue, 0, len(body.Results))
	for _, r := range body.Results {
		v := Venue{
			Name:       r.Name,
			Address:    r.FormattedAddress,
			Rating:     r.Rating,
			PriceLevel: r.PriceLevel,
			Category:   primaryType(r.Types),
		}
		if r.OpeningHours != nil && r.OpeningHours.OpenNow {
			v.Hours = "Open now"
		}
		for _, photo := range r.Photos {
			v.Photos = append(v.Photos, p.photoURL(photo.PhotoReference))
		}
		venues = append(venues, v)
	}
	return venues, nil
}

func (p *PlacesClient) photoURL(reference string) string {
	return fmt.Sprintf("https://maps.googleapis.com/maps/api/place/photo?maxwidth=800&photo_reference=%s&key=%s",
		url.QueryEscape(reference), url.QueryEscape(p.apiKey))
}

// toolQueries seeds the text search per concierge domain.
var toolQueries = map[models.ConciergeTool]string{
	models.ToolDining:        "restaurants",
	models.ToolBar:           "bars",
	models.ToolNightclub:     "night clubs",
	models.ToolActivity:      "things to do",
	models.ToolFitness:       "gyms and fitness studios",
	models.ToolWellness:      "spas and wellness centers",
	models.ToolTheatre:       "theatres",
	models.ToolSports:        "sports venues",
	models.ToolEscapeRoom:    "escape rooms",
	models.ToolWeekendEvents: "events this weekend",
	models.ToolHotel:         "hotels",
}

func buildQuery(req SearchRequest) string {
	parts := make([]string, 0, 3)
	if base, ok := toolQueries[req.ToolType]; ok {
		parts = append(parts, base)
	}
	if req.UserRequest != "" {
		parts = append(parts, req.UserRequest)
	}
	if req.Location != "" && req.Location != LocalAreaPlaceholder {
		parts = append(parts, "in "+req.Location)
	}
	return strings.Join(parts, " ")
}

func primaryType(types []string) string {
	for _, t := range types {
		// Skip generic tags the API attaches to everything.
		if t == "point_of_interest" || t == "establishment" {
			continue
		}
		return strings.ReplaceAll(t, "_", " ")
	}
	return ""
}

func limitVenues(venues []Venue, count int) []Venue {
	if count > 0 && len(venues) > count {
		return venues[:count]
	}
	return venues
}
