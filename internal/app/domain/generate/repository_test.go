package generate

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decisionjar/backend/internal/app/models"
)

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresRepository(mock), mock
}

func TestGetUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	jarID := uuid.New()
	created := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, email, display_name, home_location, stripe_customer_id, active_jar_id, created_at FROM users WHERE id = $1")).
		WithArgs(userID.String()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "display_name", "home_location", "stripe_customer_id", "active_jar_id", "created_at"}).
			AddRow(userID, "a@b.c", "Alex", "Fitzroy", "cus_123", &jarID, created))

	u, err := repo.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Alex", u.DisplayName)
	assert.Equal(t, "cus_123", u.StripeCustomerID)
	require.NotNil(t, u.ActiveJarID)
	assert.Equal(t, jarID, *u.ActiveJarID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM users").
		WithArgs(userID.String()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.GetUser(context.Background(), userID)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestIsJarMember(t *testing.T) {
	repo, mock := newMockRepo(t)
	jarID, userID := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT EXISTS(SELECT 1 FROM jar_members WHERE jar_id = $1 AND user_id = $2)")).
		WithArgs(jarID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	isMember, err := repo.IsJarMember(context.Background(), jarID, userID)
	require.NoError(t, err)
	assert.True(t, isMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFirstJarForUser_NoMembership(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM jars j JOIN jar_members m").
		WithArgs(userID.String()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.FirstJarForUser(context.Background(), userID)
	assert.ErrorIs(t, err, models.ErrNoActiveJar)
}

func TestCountUsageSince(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	since := time.Now().Truncate(24 * time.Hour)

	// squirrel sorts sq.Eq map keys ("operation" < "user_id") and evaluates
	// driver.Valuer args, so the bound args are (operation, userID string, since).
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM usage_history").
		WithArgs(opBulkGenerate, userID.String(), since).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountUsageSince(context.Background(), userID, opBulkGenerate, since)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLogUsage(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()

	mock.ExpectExec("INSERT INTO usage_history").
		WithArgs(pgxmock.AnyArg(), userID, opBulkGenerate, 5, "five ideas", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.LogUsage(context.Background(), userID, opBulkGenerate, 5, "five ideas")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveIdeas(t *testing.T) {
	repo, mock := newMockRepo(t)
	idea := models.Idea{
		ID:            uuid.New(),
		JarID:         uuid.New(),
		CreatedBy:     uuid.New(),
		Title:         "Dune",
		Category:      "BOOKS",
		Indoor:        true,
		DurationHours: 1,
		Cost:          models.Cost1,
		ActivityLevel: models.ActivityMedium,
		PhotoURLs:     []string{},
		IdeaType:      models.IdeaTypeBook,
		TypeData:      &models.TypeData{Kind: models.IdeaTypeBook, Book: &models.BookData{Title: "Dune"}},
		CreatedAt:     time.Now(),
	}

	// pgxmock requires the expected arg count to match even without value
	// checks; one idea row binds 18 columns.
	anyArgs := make([]any, 18)
	for i := range anyArgs {
		anyArgs[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec("INSERT INTO ideas").
		WithArgs(anyArgs...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.SaveIdeas(context.Background(), []models.Idea{idea}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveIdeas_EmptyIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)
	require.NoError(t, repo.SaveIdeas(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
