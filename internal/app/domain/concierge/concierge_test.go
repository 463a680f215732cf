package concierge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/decisionjar/backend/internal/app/models"
)

type fakeLookup struct {
	req    SearchRequest
	venues []Venue
	err    error
}

func (f *fakeLookup) Search(_ context.Context, req SearchRequest) ([]Venue, error) {
	f.req = req
	return f.venues, f.err
}

func TestResolveLocation_PriorityChain(t *testing.T) {
	lc := LocationContext{ClientLocation: "client", UserHome: "home", JarDefault: "jar"}
	locIntent := func(loc string) models.Intent {
		return models.Intent{IsLocationDependent: true, Location: loc}
	}

	assert.Equal(t, "explicit", ResolveLocation(locIntent("explicit"), lc))
	assert.Equal(t, "client", ResolveLocation(locIntent(""), lc))
	assert.Equal(t, "home", ResolveLocation(locIntent(""), LocationContext{UserHome: "home", JarDefault: "jar"}))
	assert.Equal(t, "jar", ResolveLocation(locIntent(""), LocationContext{JarDefault: "jar"}))
	assert.Equal(t, LocalAreaPlaceholder, ResolveLocation(locIntent(""), LocationContext{}))
}

func TestResolveLocation_SuppressedWhenNotLocationDependent(t *testing.T) {
	in := models.Intent{
		IsLocationDependent: false,
		Location:            "Melbourne",
	}
	lc := LocationContext{ClientLocation: "client", UserHome: "home", JarDefault: "jar"}
	assert.Empty(t, ResolveLocation(in, lc), "non-physical requests must not leak a location")
}

func TestRequiresVenueLookup_PhysicalToolsOnly(t *testing.T) {
	physical := models.Intent{RequiresVenueLookup: true, ConciergeTool: models.ToolDining}
	assert.True(t, RequiresVenueLookup(physical))

	virtual := models.Intent{RequiresVenueLookup: true, ConciergeTool: models.ToolBook}
	assert.False(t, RequiresVenueLookup(virtual), "flag alone is not enough for a non-physical tool")

	unflagged := models.Intent{RequiresVenueLookup: false, ConciergeTool: models.ToolDining}
	assert.False(t, RequiresVenueLookup(unflagged))
}

func TestDispatcher_LookupMapsVenues(t *testing.T) {
	lookup := &fakeLookup{venues: []Venue{{
		Name:       "Luigi's",
		Category:   "italian restaurant",
		Address:    "1 Lygon St",
		Rating:     4.5,
		PriceLevel: 2,
		Website:    "https://luigis.example",
	}}}
	d := NewDispatcher(lookup, zap.NewNop())

	in := models.Intent{
		ConciergeTool:       models.ToolDining,
		Topic:               "Italian restaurants",
		Quantity:            5,
		RequiresVenueLookup: true,
		IsLocationDependent: true,
	}
	ideas, err := d.Lookup(context.Background(), in, "Melbourne")
	require.NoError(t, err)
	require.Len(t, ideas, 1)

	assert.Equal(t, models.ToolDining, lookup.req.ToolType)
	assert.Equal(t, "Melbourne", lookup.req.Location)
	assert.Equal(t, 5, lookup.req.Count)

	idea := ideas[0]
	assert.Equal(t, "Luigi's", idea.Title)
	assert.Equal(t, "DINING", idea.Category)
	assert.Equal(t, models.Cost2, idea.Cost)
	assert.Equal(t, models.IdeaTypeDining, idea.IdeaType)
	require.NotNil(t, idea.Indoor)
	assert.True(t, *idea.Indoor)
	require.NotNil(t, idea.Duration)
	assert.Equal(t, models.FlexFloat(2), *idea.Duration)
	assert.Contains(t, idea.Details, "1 Lygon St")
	assert.Contains(t, idea.Details, "4.5/5")

	var dining models.DiningData
	require.NoError(t, json.Unmarshal(idea.TypeData, &dining))
	assert.Equal(t, "Luigi's", dining.EstablishmentName)
	assert.Equal(t, models.Cost2, dining.PriceRange)
	assert.Equal(t, 4.5, dining.Rating)
}

func TestDispatcher_LookupPropagatesError(t *testing.T) {
	d := NewDispatcher(&fakeLookup{err: errors.New("quota exhausted")}, zap.NewNop())

	_, err := d.Lookup(context.Background(), models.Intent{ConciergeTool: models.ToolDining}, "Melbourne")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exhausted")
}

func TestMapVenues_TypePerTool(t *testing.T) {
	venues := []Venue{{Name: "X", Address: "addr"}}

	assert.Equal(t, models.IdeaTypeDining, MapVenues(venues, models.ToolBar, "loc")[0].IdeaType)
	assert.Equal(t, models.IdeaTypeTravel, MapVenues(venues, models.ToolHotel, "loc")[0].IdeaType)
	assert.Equal(t, models.IdeaTypeEvent, MapVenues(venues, models.ToolTheatre, "loc")[0].IdeaType)
	assert.Equal(t, models.IdeaTypeActivity, MapVenues(venues, models.ToolFitness, "loc")[0].IdeaType)
}

func TestVenueTypeData_PopulatesEverySchema(t *testing.T) {
	v := Venue{
		Name:       "Luigi's",
		Category:   "italian restaurant",
		PriceLevel: 2,
		Address:    "1 Lygon St",
		Rating:     4.5,
	}
	raw := venueTypeData(v, models.ToolDining, "Melbourne")

	// The one payload must decode into any schema the record could later be
	// classified as, with that schema's fields already filled.
	var dining models.DiningData
	require.NoError(t, json.Unmarshal(raw, &dining))
	assert.Equal(t, "Luigi's", dining.EstablishmentName)
	assert.Equal(t, "italian restaurant", dining.Cuisine)
	assert.Equal(t, models.Cost2, dining.PriceRange)
	assert.Equal(t, 4.5, dining.Rating)

	var activity models.ActivityData
	require.NoError(t, json.Unmarshal(raw, &activity))
	assert.Equal(t, "Luigi's", activity.ActivityName)
	assert.Equal(t, "italian restaurant", activity.ActivityType)
	assert.Equal(t, "1 Lygon St", activity.Location)

	var event models.EventData
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "Luigi's", event.EventName)
	assert.Equal(t, "1 Lygon St", event.Venue)

	var travel models.TravelData
	require.NoError(t, json.Unmarshal(raw, &travel))
	assert.Equal(t, "Melbourne", travel.Destination)
	assert.Equal(t, string(models.ToolDining), travel.TravelType)
}

func TestBuildQuery(t *testing.T) {
	q := buildQuery(SearchRequest{ToolType: models.ToolDining, UserRequest: "cheap pasta", Location: "Melbourne"})
	assert.Equal(t, "restaurants cheap pasta in Melbourne", q)

	q = buildQuery(SearchRequest{ToolType: models.ToolDining, Location: LocalAreaPlaceholder})
	assert.Equal(t, "restaurants", q, "placeholder location must not reach the provider")
}
