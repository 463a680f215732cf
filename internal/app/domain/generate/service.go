// Package generate hosts the bulk-generation orchestrator: jar resolution,
// rate limiting, intent-driven branching into venue lookup or model
// generation, and preview-or-persist of the resulting ideas.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/decisionjar/backend/internal/app/ai"
	"github.com/decisionjar/backend/internal/app/domain/billing"
	"github.com/decisionjar/backend/internal/app/domain/concierge"
	"github.com/decisionjar/backend/internal/app/domain/ideatype"
	"github.com/decisionjar/backend/internal/app/domain/intent"
	"github.com/decisionjar/backend/internal/app/models"
	"github.com/decisionjar/backend/internal/app/observability/metrics"
)

const (
	opBulkGenerate     = "bulk_generate"
	promptSnippetLimit = 255
)

// IntentResolver classifies free text; satisfied by *intent.Parser.
type IntentResolver interface {
	ParseIntent(ctx context.Context, promptText string, pctx intent.Context) models.Intent
}

// CandidateVerifier filters candidates; satisfied by *validator.Verifier.
type CandidateVerifier interface {
	BatchVerify(ctx context.Context, query string, candidates []models.CandidateIdea, toolType models.ConciergeTool) []models.CandidateIdea
}

// VenueDispatcher runs venue lookups; satisfied by *concierge.Dispatcher.
type VenueDispatcher interface {
	Lookup(ctx context.Context, in models.Intent, location string) ([]models.CandidateIdea, error)
}

// Service coordinates one bulk-generation request end to end.
type Service struct {
	repo       Repository
	ai         *ai.Client
	parser     IntentResolver
	verifier   CandidateVerifier
	venues     VenueDispatcher
	billing    billing.Service
	dailyQuota int
	logger     *zap.Logger
}

func NewService(
	repo Repository,
	aiClient *ai.Client,
	parser IntentResolver,
	verifier CandidateVerifier,
	venues VenueDispatcher,
	billingSvc billing.Service,
	dailyQuota int,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:       repo,
		ai:         aiClient,
		parser:     parser,
		verifier:   verifier,
		venues:     venues,
		billing:    billingSvc,
		dailyQuota: dailyQuota,
		logger:     logger,
	}
}

// BulkGenerate runs the full pipeline for one request. Terminal errors
// (unknown user, no jar, quota, unparseable model output) propagate; venue
// and validator failures degrade without surfacing.
func (s *Service) BulkGenerate(ctx context.Context, userID uuid.UUID, req models.BulkGenerateRequest) (*models.BulkGenerateResult, error) {
	ctx, span := otel.Tracer("BulkGenerationOrchestrator").Start(ctx, "BulkGenerate", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Bool("preview", req.Preview),
	))
	defer span.End()

	if req.Prompt == "" && req.Preferences == nil {
		return nil, models.ErrMissingInput
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	jar, err := s.resolveJar(ctx, user, req.JarID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("jar.id", jar.ID.String()))

	if err := s.checkQuota(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Quota exceeded")
		return nil, err
	}

	var candidates []models.CandidateIdea
	if req.Prompt != "" {
		candidates, err = s.generateFromPrompt(ctx, user, jar, req)
	} else {
		candidates, err = s.generateFromQuiz(ctx, jar, *req.Preferences)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generation failed")
		return nil, err
	}

	s.recordUsage(ctx, user.ID, len(candidates), req.Prompt)
	metrics.RecordGeneration(ctx, len(candidates), req.Preview)

	result := &models.BulkGenerateResult{
		Preview:    req.Preview,
		JarID:      jar.ID,
		Candidates: candidates,
	}
	if req.Preview {
		span.SetStatus(codes.Ok, "Preview returned")
		return result, nil
	}

	persisted, err := s.persistCandidates(ctx, user, jar, candidates)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Persistence failed")
		return nil, err
	}
	result.Persisted = persisted
	span.SetAttributes(attribute.Int("ideas.persisted", len(persisted)))
	span.SetStatus(codes.Ok, "Ideas persisted")
	return result, nil
}

// resolveJar walks the chain: explicit id (with membership check) → the
// user's active jar → the user's first membership.
func (s *Service) resolveJar(ctx context.Context, user *models.User, explicit *uuid.UUID) (*models.Jar, error) {
	if explicit != nil {
		isMember, err := s.repo.IsJarMember(ctx, *explicit, user.ID)
		if err != nil {
			return nil, err
		}
		if !isMember {
			return nil, models.ErrNotJarMember
		}
		return s.repo.GetJar(ctx, *explicit)
	}
	if user.ActiveJarID != nil {
		jar, err := s.repo.GetJar(ctx, *user.ActiveJarID)
		if err == nil {
			return jar, nil
		}
		if !errors.Is(err, models.ErrJarNotFound) {
			return nil, err
		}
		// Stale active-jar pointer; fall through to first membership.
	}
	return s.repo.FirstJarForUser(ctx, user.ID)
}

// checkQuota enforces the non-premium daily cap, counted from local
// midnight. The count and the later usage insert are not transactional;
// concurrent submissions can exceed the cap by one, which we accept.
func (s *Service) checkQuota(ctx context.Context, user *models.User) error {
	if s.dailyQuota <= 0 || s.billing.IsPremium(ctx, user.StripeCustomerID) {
		return nil
	}
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	usage, err := s.repo.CountUsageSince(ctx, user.ID, opBulkGenerate, midnight)
	if err != nil {
		return err
	}
	if usage >= s.dailyQuota {
		return &models.UpgradeRequiredError{Limit: s.dailyQuota, Usage: usage}
	}
	return nil
}

func (s *Service) generateFromPrompt(ctx context.Context, user *models.User, jar *models.Jar, req models.BulkGenerateRequest) ([]models.CandidateIdea, error) {
	in := s.resolveIntent(ctx, req, jar)
	location := concierge.ResolveLocation(in, concierge.LocationContext{
		ClientLocation: req.Location,
		UserHome:       user.HomeLocation,
		JarDefault:     jar.DefaultLocation,
	})

	if concierge.RequiresVenueLookup(in) {
		candidates, err := s.venues.Lookup(ctx, in, location)
		switch {
		case err != nil:
			// Soft failure: fall through to generation.
			s.logger.Warn("Venue lookup failed, falling back to generation",
				zap.String("tool", string(in.ConciergeTool)),
				zap.Error(err))
		case len(candidates) > 0:
			return s.verifier.BatchVerify(ctx, in.Topic, candidates, in.ConciergeTool), nil
		default:
			s.logger.Info("Venue lookup returned no results, falling back to generation",
				zap.String("tool", string(in.ConciergeTool)),
				zap.String("location", location))
		}
	}

	prompt := buildGenerationPrompt(in, location, jar.Topic)
	return s.generateCandidates(ctx, prompt)
}

func (s *Service) resolveIntent(ctx context.Context, req models.BulkGenerateRequest, jar *models.Jar) models.Intent {
	if req.Intent != nil {
		in := *req.Intent
		if !models.ValidAction(in.Action) {
			in.Action = models.ActionBulkGenerate
		}
		if in.Quantity < 1 {
			in.Quantity = models.DefaultQuantity
		}
		return in
	}
	return s.parser.ParseIntent(ctx, req.Prompt, intent.Context{
		Location: req.Location,
		JarTopic: jar.Topic,
	})
}

func (s *Service) generateFromQuiz(ctx context.Context, jar *models.Jar, prefs models.QuizPreferences) ([]models.CandidateIdea, error) {
	return s.generateCandidates(ctx, buildQuizPrompt(prefs, jar.Topic))
}

// generateCandidates calls the model without JSON mode so search grounding
// stays available, then extracts the first JSON array from the free text.
func (s *Service) generateCandidates(ctx context.Context, prompt string) ([]models.CandidateIdea, error) {
	raw, err := s.ai.Generate(ctx, prompt, ai.CallOptions{})
	if err != nil {
		return nil, err
	}
	arr, ok := ai.ExtractFirstJSONArray(ai.CleanJSONResponse(raw))
	if !ok {
		s.logger.Error("Model response contained no JSON array",
			zap.Int("response_length", len(raw)))
		return nil, models.ErrInvalidAIResponse
	}
	var candidates []models.CandidateIdea
	if err := json.Unmarshal([]byte(arr), &candidates); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAIResponse, err)
	}
	return candidates, nil
}

// recordUsage appends to the usage log. The write is detached from the
// request's cancellation and its failure never blocks the response.
func (s *Service) recordUsage(ctx context.Context, userID uuid.UUID, itemCount int, prompt string) {
	snippet := prompt
	if len(snippet) > promptSnippetLimit {
		snippet = snippet[:promptSnippetLimit]
	}
	if err := s.repo.LogUsage(context.WithoutCancel(ctx), userID, opBulkGenerate, itemCount, snippet); err != nil {
		s.logger.Warn("Failed to record usage", zap.Error(err))
	}
}

func (s *Service) persistCandidates(ctx context.Context, user *models.User, jar *models.Jar, candidates []models.CandidateIdea) ([]models.Idea, error) {
	now := time.Now()
	ideas := make([]models.Idea, 0, len(candidates))
	for _, c := range candidates {
		ideas = append(ideas, buildIdea(c, jar, user.ID, now))
	}
	if err := s.repo.SaveIdeas(ctx, ideas); err != nil {
		return nil, err
	}
	return ideas, nil
}

// buildIdea normalizes one candidate into a persistable record: final
// category, layered type inference and defaults for missing scalars.
func buildIdea(c models.CandidateIdea, jar *models.Jar, createdBy uuid.UUID, now time.Time) models.Idea {
	title := c.DisplayTitle()
	finalCategory := resolveCategory(c.Category, jar.Topic)

	ideaType := c.IdeaType
	if !models.ValidIdeaType(ideaType) {
		ideaType = ideatype.InferType(c.Category, title)
	}
	if ideaType == "" {
		ideaType = ideatype.InferType(finalCategory, title)
	}
	typeData := ideatype.Standardize(ideatype.Record{
		Category:     c.Category,
		Title:        title,
		Description:  c.Description,
		Details:      c.Details,
		ExplicitType: ideaType,
		ExplicitData: c.TypeData,
	})
	if ideaType == "" && typeData != nil {
		ideaType = typeData.Kind
	}

	idea := models.Idea{
		ID:            uuid.New(),
		JarID:         jar.ID,
		CreatedBy:     createdBy,
		Title:         title,
		Description:   c.Description,
		Category:      finalCategory,
		Indoor:        true,
		DurationHours: 1.0,
		Cost:          models.Cost1,
		ActivityLevel: models.ActivityMedium,
		Details:       c.Details,
		Address:       c.Address,
		Website:       c.Website,
		GoogleRating:  c.Rating(),
		PhotoURLs:     []string{},
		IdeaType:      ideaType,
		TypeData:      typeData,
		CreatedAt:     now,
	}
	if c.Indoor != nil {
		idea.Indoor = *c.Indoor
	}
	if c.Duration != nil && *c.Duration > 0 {
		idea.DurationHours = float64(*c.Duration)
	}
	if c.Cost != "" {
		idea.Cost = c.Cost
	}
	if level := strings.ToUpper(strings.TrimSpace(c.ActivityLevel)); level == models.ActivityLow || level == models.ActivityMedium || level == models.ActivityHigh {
		idea.ActivityLevel = level
	}
	if len(c.PhotoURLs) > 0 {
		idea.PhotoURLs = c.PhotoURLs
	}
	return idea
}

// resolveCategory maps a free-form category onto the fixed category set,
// falling back to the jar's topic and finally GENERAL.
func resolveCategory(category, jarTopic string) string {
	if id := matchCategory(category); id != "" {
		return id
	}
	if id := matchCategory(jarTopic); id != "" {
		return id
	}
	return "GENERAL"
}

func matchCategory(s string) string {
	normalized := ideatype.NormalizeCategory(s)
	if normalized == "" {
		return ""
	}
	if models.ValidCategory(normalized) {
		return normalized
	}
	for _, id := range models.ValidCategories {
		if strings.Contains(normalized, id) {
			return id
		}
	}
	// Singular/plural and near-synonym drift from model output. Ordered so
	// overlapping keywords ("BOOK CLUB") resolve the same way every time.
	for _, alias := range categoryAliases {
		if strings.Contains(normalized, alias.keyword) {
			return alias.category
		}
	}
	return ""
}

var categoryAliases = []struct {
	keyword  string
	category string
}{
	{"RESTAURANT", "DINING"}, {"FOOD", "DINING"}, {"EATING", "DINING"},
	{"MOVIE", "MOVIES"}, {"FILM", "MOVIES"}, {"CINEMA", "MOVIES"},
	{"BOOK", "BOOKS"}, {"READING", "BOOKS"},
	{"GAME", "GAMES"}, {"GAMING", "GAMES"},
	{"RECIPE", "RECIPES"}, {"COOKING", "RECIPES"},
	{"OUTDOOR", "OUTDOORS"}, {"HIKING", "OUTDOORS"},
	{"EVENT", "EVENTS"}, {"CONCERT", "EVENTS"},
	{"BAR", "NIGHTLIFE"}, {"DRINKS", "NIGHTLIFE"}, {"CLUB", "NIGHTLIFE"},
	{"TRIP", "TRAVEL"}, {"HOLIDAY", "TRAVEL"}, {"VACATION", "TRAVEL"},
	{"SPA", "WELLNESS"}, {"FITNESS", "WELLNESS"},
	{"THEATRE", "CULTURE"}, {"MUSEUM", "CULTURE"}, {"ART", "CULTURE"},
	{"SONG", "MUSIC"}, {"ALBUM", "MUSIC"},
	{"SPORT", "SPORTS"},
	{"DATE", "GENERAL"},
}
