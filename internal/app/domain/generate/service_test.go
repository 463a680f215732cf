package generate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/decisionjar/backend/internal/app/ai"
	"github.com/decisionjar/backend/internal/app/domain/billing"
	"github.com/decisionjar/backend/internal/app/domain/intent"
	"github.com/decisionjar/backend/internal/app/models"
)

type loggedUsage struct {
	userID    uuid.UUID
	operation string
	itemCount int
	snippet   string
}

type mockRepo struct {
	user     *models.User
	jars     map[uuid.UUID]*models.Jar
	members  map[uuid.UUID]bool
	firstJar *models.Jar
	usage    int
	logErr   error
	logged   []loggedUsage
	saved    []models.Idea
	saveErr  error
}

func (m *mockRepo) GetUser(_ context.Context, userID uuid.UUID) (*models.User, error) {
	if m.user == nil || m.user.ID != userID {
		return nil, models.ErrUserNotFound
	}
	return m.user, nil
}

func (m *mockRepo) GetJar(_ context.Context, jarID uuid.UUID) (*models.Jar, error) {
	if jar, ok := m.jars[jarID]; ok {
		return jar, nil
	}
	return nil, models.ErrJarNotFound
}

func (m *mockRepo) IsJarMember(_ context.Context, jarID, _ uuid.UUID) (bool, error) {
	return m.members[jarID], nil
}

func (m *mockRepo) FirstJarForUser(context.Context, uuid.UUID) (*models.Jar, error) {
	if m.firstJar == nil {
		return nil, models.ErrNoActiveJar
	}
	return m.firstJar, nil
}

func (m *mockRepo) CountUsageSince(context.Context, uuid.UUID, string, time.Time) (int, error) {
	return m.usage, nil
}

func (m *mockRepo) LogUsage(_ context.Context, userID uuid.UUID, operation string, itemCount int, snippet string) error {
	m.logged = append(m.logged, loggedUsage{userID, operation, itemCount, snippet})
	return m.logErr
}

func (m *mockRepo) SaveIdeas(_ context.Context, ideas []models.Idea) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, ideas...)
	return nil
}

type mockParser struct {
	intent models.Intent
	calls  int
}

func (m *mockParser) ParseIntent(context.Context, string, intent.Context) models.Intent {
	m.calls++
	return m.intent
}

type passthroughVerifier struct {
	calls int
	query string
}

func (m *passthroughVerifier) BatchVerify(_ context.Context, query string, candidates []models.CandidateIdea, _ models.ConciergeTool) []models.CandidateIdea {
	m.calls++
	m.query = query
	return candidates
}

type mockDispatcher struct {
	candidates []models.CandidateIdea
	err        error
	calls      int
	location   string
}

func (m *mockDispatcher) Lookup(_ context.Context, _ models.Intent, location string) ([]models.CandidateIdea, error) {
	m.calls++
	m.location = location
	return m.candidates, m.err
}

type scriptedGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *scriptedGenerator) GenerateContent(_ context.Context, _, prompt string, _ *genai.GenerateContentConfig) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type fixture struct {
	service    *Service
	repo       *mockRepo
	parser     *mockParser
	verifier   *passthroughVerifier
	dispatcher *mockDispatcher
	gen        *scriptedGenerator
	userID     uuid.UUID
	jarID      uuid.UUID
}

func newFixture(premium bool) *fixture {
	userID := uuid.New()
	jarID := uuid.New()
	jar := &models.Jar{ID: jarID, Topic: "Date Night", DefaultLocation: "Melbourne"}
	repo := &mockRepo{
		user: &models.User{ID: userID, ActiveJarID: &jarID, HomeLocation: "Fitzroy"},
		jars: map[uuid.UUID]*models.Jar{jarID: jar},
	}
	gen := &scriptedGenerator{response: `[{"title":"Fallback idea","description":"generated","category":"GENERAL"}]`}
	parser := &mockParser{intent: models.Intent{
		Action:        models.ActionBulkGenerate,
		Quantity:      5,
		Topic:         "something fun",
		ContentFormat: models.FormatDefault,
	}}
	verifier := &passthroughVerifier{}
	dispatcher := &mockDispatcher{}
	svc := NewService(
		repo,
		ai.NewClientWithGenerator(gen, []string{"test-model"}, zap.NewNop()),
		parser,
		verifier,
		dispatcher,
		&billing.StaticService{Premium: premium},
		3,
		zap.NewNop(),
	)
	return &fixture{service: svc, repo: repo, parser: parser, verifier: verifier, dispatcher: dispatcher, gen: gen, userID: userID, jarID: jarID}
}

func TestBulkGenerate_MissingInput(t *testing.T) {
	f := newFixture(false)
	_, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{})
	assert.ErrorIs(t, err, models.ErrMissingInput)
}

func TestBulkGenerate_UnknownUser(t *testing.T) {
	f := newFixture(false)
	_, err := f.service.BulkGenerate(context.Background(), uuid.New(), models.BulkGenerateRequest{Prompt: "anything"})
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestBulkGenerate_QuotaExceeded(t *testing.T) {
	f := newFixture(false)
	f.repo.usage = 3

	_, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{Prompt: "5 date ideas"})

	var upgrade *models.UpgradeRequiredError
	require.ErrorAs(t, err, &upgrade)
	assert.Equal(t, 3, upgrade.Limit)
	assert.Equal(t, 3, upgrade.Usage)
	assert.Zero(t, f.parser.calls, "quota must be checked before any model spend")
}

func TestBulkGenerate_PremiumBypassesQuota(t *testing.T) {
	f := newFixture(true)
	f.repo.usage = 50

	result, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{Prompt: "5 date ideas", Preview: true})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Candidates)
}

func TestBulkGenerate_JarResolutionChain(t *testing.T) {
	t.Run("explicit jar requires membership", func(t *testing.T) {
		f := newFixture(false)
		otherJar := uuid.New()
		_, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{
			Prompt: "ideas", JarID: &otherJar,
		})
		assert.ErrorIs(t, err, models.ErrNotJarMember)
	})

	t.Run("explicit jar with membership wins over active jar", func(t *testing.T) {
		f := newFixture(false)
		other := &models.Jar{ID: uuid.New(), Topic: "Games"}
		f.repo.jars[other.ID] = other
		f.repo.members = map[uuid.UUID]bool{other.ID: true}

		result, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{
			Prompt: "ideas", JarID: &other.ID, Preview: true,
		})
		require.NoError(t, err)
		assert.Equal(t, other.ID, result.JarID)
	})

	t.Run("stale active jar falls back to first membership", func(t *testing.T) {
		f := newFixture(false)
		stale := uuid.New()
		f.repo.user.ActiveJarID = &stale
		f.repo.firstJar = f.repo.jars[f.jarID]

		result, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{Prompt: "ideas", Preview: true})
		require.NoError(t, err)
		assert.Equal(t, f.jarID, result.JarID)
	})

	t.Run("no jar anywhere", func(t *testing.T) {
		f := newFixture(false)
		f.repo.user.ActiveJarID = nil
		_, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{Prompt: "ideas"})
		assert.ErrorIs(t, err, models.ErrNoActiveJar)
	})
}

func venueIntent() *models.Intent {
	return &models.Intent{
		Action:              models.ActionBulkGenerate,
		ConciergeTool:       models.ToolDining,
		Quantity:            5,
		Topic:               "Italian restaurants",
		ContentFormat:       models.FormatDefault,
		RequiresVenueLookup: true,
		IsLocationDependent: true,
	}
}

func TestBulkGenerate_VenuePathRunsValidator(t *testing.T) {
	f := newFixture(false)
	f.dispatcher.candidates = []models.CandidateIdea{{Title: "Luigi's", Category: "DINING"}}

	result, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{
		Prompt:  "5 Italian restaurants",
		Intent:  venueIntent(),
		Preview: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.dispatcher.calls)
	assert.Equal(t, 1, f.verifier.calls)
	assert.Equal(t, "Italian restaurants", f.verifier.query)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "Luigi's", result.Candidates[0].Title)
	assert.Empty(t, f.gen.prompts, "venue success must not spend a generation call")
}

func TestBulkGenerate_VenueZeroResultsFallsThroughToGeneration(t *testing.T) {
	f := newFixture(false)
	f.dispatcher.candidates = nil

	result, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{
		Prompt:  "5 Italian restaurants",
		Intent:  venueIntent(),
		Preview: true,
	})
	require.NoError(t, err, "zero venue results is a soft failure")
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "Fallback idea", result.Candidates[0].Title)
	assert.Zero(t, f.verifier.calls, "nothing to verify on the generative path")
}

func TestBulkGenerate_VenueErrorFallsThroughToGeneration(t *testing.T) {
	f := newFixture(false)
	f.dispatcher.err = errors.New("places quota exhausted")

	result, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{
		Prompt:  "5 Italian restaurants",
		Intent:  venueIntent(),
		Preview: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "Fallback idea", result.Candidates[0].Title)
}

func TestBulkGenerate_LocationChainReachesDispatcher(t *testing.T) {
	f := newFixture(false)
	f.dispatcher.candidates = []models.CandidateIdea{{Title: "X"}}

	_, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{
		Prompt:  "restaurants",
		Intent:  venueIntent(),
		Preview: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Fitzroy", f.dispatcher.location, "user home wins when intent and client gave nothing")
}

func TestBulkGenerate_LocationSuppressedForNonPhysicalTopics(t *testing.T) {
	f := newFixture(false)
	in := &models.Intent{
		Action:              models.ActionBulkGenerate,
		Quantity:            5,
		Topic:               "sci-fi books",
		ContentFormat:       models.FormatDefault,
		IsLocationDependent: false,
	}

	_, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{
		Prompt:   "5 sci-fi books",
		Intent:   in,
		Location: "Melbourne",
		Preview:  true,
	})
	require.NoError(t, err)
	require.Len(t, f.gen.prompts, 1)
	assert.NotContains(t, f.gen.prompts[0], "Location:", "books must not be contaminated by location")
	assert.NotContains(t, f.gen.prompts[0], "Melbourne")
}

func TestBulkGenerate_UnparseableModelOutputIsTerminal(t *testing.T) {
	f := newFixture(false)
	f.gen.response = "I could not come up with anything, sorry."

	_, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{Prompt: "ideas"})
	assert.ErrorIs(t, err, models.ErrInvalidAIResponse)
}

func TestBulkGenerate_UsageIsLoggedWithTruncatedSnippet(t *testing.T) {
	f := newFixture(false)
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}

	_, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{Prompt: string(long), Preview: true})
	require.NoError(t, err)
	require.Len(t, f.repo.logged, 1)
	entry := f.repo.logged[0]
	assert.Equal(t, f.userID, entry.userID)
	assert.Equal(t, opBulkGenerate, entry.operation)
	assert.Equal(t, 1, entry.itemCount)
	assert.Len(t, entry.snippet, 255)
}

func TestBulkGenerate_UsageLogFailureDoesNotBlock(t *testing.T) {
	f := newFixture(false)
	f.repo.logErr = errors.New("disk full")

	result, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{Prompt: "ideas", Preview: true})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Candidates)
}

func TestBulkGenerate_PreviewDoesNotPersist(t *testing.T) {
	f := newFixture(false)

	result, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{Prompt: "ideas", Preview: true})
	require.NoError(t, err)
	assert.True(t, result.Preview)
	assert.Empty(t, f.repo.saved)
	assert.Empty(t, result.Persisted)
}

func TestBulkGenerate_PersistAppliesDefaultsAndInference(t *testing.T) {
	f := newFixture(false)
	f.gen.response = `[{"title":"Taco crawl","description":"street food tour","category":"restaurant hopping","duration":"2 hours"}]`

	result, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{Prompt: "food ideas"})
	require.NoError(t, err)
	require.Len(t, f.repo.saved, 1)

	idea := f.repo.saved[0]
	assert.Equal(t, "Taco crawl", idea.Title)
	assert.Equal(t, "DINING", idea.Category, "free-form category maps onto the fixed set")
	assert.True(t, idea.Indoor, "indoor defaults true")
	assert.Equal(t, 2.0, idea.DurationHours, "string duration is coerced")
	assert.Equal(t, models.Cost1, idea.Cost)
	assert.Equal(t, models.ActivityMedium, idea.ActivityLevel)
	assert.NotNil(t, idea.PhotoURLs)
	assert.Equal(t, models.IdeaTypeDining, idea.IdeaType)
	assert.Equal(t, result.JarID, idea.JarID)
}

func TestBulkGenerate_ExplicitTypeDataRoundTrips(t *testing.T) {
	f := newFixture(false)
	raw := `{"title":"Dune","author":"Frank Herbert","genre":"Sci-fi","year":1965,"pageCount":412,"format":"paperback"}`
	f.gen.response = `[{"title":"Dune","description":"a novel","category":"BOOKS","ideaType":"book","typeData":` + raw + `}]`

	_, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{Prompt: "book ideas"})
	require.NoError(t, err)
	require.Len(t, f.repo.saved, 1)

	idea := f.repo.saved[0]
	assert.Equal(t, models.IdeaTypeBook, idea.IdeaType)
	require.True(t, idea.TypeData.Valid())
	out, err := json.Marshal(idea.TypeData)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out), "explicit valid typeData must persist unchanged")
}

func TestBulkGenerate_QuizBranch(t *testing.T) {
	f := newFixture(false)
	f.gen.response = `[{"title":"Board game night","category":"GAMES"}]`

	result, err := f.service.BulkGenerate(context.Background(), f.userID, models.BulkGenerateRequest{
		Preferences: &models.QuizPreferences{
			Categories:    []string{"GAMES", "DINING"},
			Budget:        "$",
			Duration:      "MEDIUM",
			ActivityLevel: "LOW",
			IdealCount:    4,
		},
		Preview: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Zero(t, f.parser.calls, "quiz branch never classifies free text")

	require.Len(t, f.gen.prompts, 1)
	prompt := f.gen.prompts[0]
	assert.Contains(t, prompt, "exactly 4")
	assert.Contains(t, prompt, "budget-friendly")
	assert.Contains(t, prompt, "a few hours")
	assert.Contains(t, prompt, "relaxed")
}

func TestResolveCategory(t *testing.T) {
	cases := []struct {
		category string
		jarTopic string
		want     string
	}{
		{"DINING", "", "DINING"},
		{"fine-dining", "", "DINING"},
		{"book club", "", "BOOKS"},
		{"", "Movie Night", "MOVIES"},
		{"mystery", "mystery", "GENERAL"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, resolveCategory(tc.category, tc.jarTopic), "category %q topic %q", tc.category, tc.jarTopic)
	}
}
