package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/decisionjar/backend/internal/app/models"
)

// Repository is the persistence boundary of the bulk-generation pipeline.
type Repository interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetJar(ctx context.Context, jarID uuid.UUID) (*models.Jar, error)
	IsJarMember(ctx context.Context, jarID, userID uuid.UUID) (bool, error)
	FirstJarForUser(ctx context.Context, userID uuid.UUID) (*models.Jar, error)
	CountUsageSince(ctx context.Context, userID uuid.UUID, operation string, since time.Time) (int, error)
	LogUsage(ctx context.Context, userID uuid.UUID, operation string, itemCount int, promptSnippet string) error
	SaveIdeas(ctx context.Context, ideas []models.Idea) error
}

// DB is the subset of pgxpool.Pool the repository needs; pgxmock implements
// it for tests.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository implements Repository on a pgx connection pool.
type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query, args, err := psql.
		Select("id", "email", "display_name", "home_location", "stripe_customer_id", "active_jar_id", "created_at").
		From("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	var u models.User
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.HomeLocation,
		&u.StripeCustomerID, &u.ActiveJarID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &u, nil
}

func (r *PostgresRepository) GetJar(ctx context.Context, jarID uuid.UUID) (*models.Jar, error) {
	query, args, err := psql.
		Select("id", "owner_id", "name", "topic", "default_location", "created_at").
		From("jars").
		Where(sq.Eq{"id": jarID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build jar query: %w", err)
	}

	var j models.Jar
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&j.ID, &j.OwnerID, &j.Name, &j.Topic, &j.DefaultLocation, &j.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrJarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jar: %w", err)
	}
	return &j, nil
}

func (r *PostgresRepository) IsJarMember(ctx context.Context, jarID, userID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM jar_members WHERE jar_id = $1 AND user_id = $2)`

	var isMember bool
	if err := r.db.QueryRow(ctx, query, jarID, userID).Scan(&isMember); err != nil {
		return false, fmt.Errorf("failed to check jar membership: %w", err)
	}
	return isMember, nil
}

// FirstJarForUser returns the user's earliest membership, the tail of the
// jar-resolution chain.
func (r *PostgresRepository) FirstJarForUser(ctx context.Context, userID uuid.UUID) (*models.Jar, error) {
	query, args, err := psql.
		Select("j.id", "j.owner_id", "j.name", "j.topic", "j.default_location", "j.created_at").
		From("jars j").
		Join("jar_members m ON m.jar_id = j.id").
		Where(sq.Eq{"m.user_id": userID}).
		OrderBy("m.joined_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build first-jar query: %w", err)
	}

	var j models.Jar
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&j.ID, &j.OwnerID, &j.Name, &j.Topic, &j.DefaultLocation, &j.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNoActiveJar
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first jar: %w", err)
	}
	return &j, nil
}

func (r *PostgresRepository) CountUsageSince(ctx context.Context, userID uuid.UUID, operation string, since time.Time) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("usage_history").
		Where(sq.Eq{"user_id": userID, "operation": operation}).
		Where(sq.GtOrEq{"created_at": since}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build usage-count query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count usage: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) LogUsage(ctx context.Context, userID uuid.UUID, operation string, itemCount int, promptSnippet string) error {
	query, args, err := psql.
		Insert("usage_history").
		Columns("id", "user_id", "operation", "item_count", "prompt_snippet", "created_at").
		Values(uuid.New(), userID, operation, itemCount, promptSnippet, time.Now()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build usage insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to log usage: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SaveIdeas(ctx context.Context, ideas []models.Idea) error {
	if len(ideas) == 0 {
		return nil
	}

	builder := psql.
		Insert("ideas").
		Columns("id", "jar_id", "created_by", "title", "description", "category",
			"indoor", "duration_hours", "cost", "activity_level", "details",
			"address", "website", "google_rating", "photo_urls",
			"idea_type", "type_data", "created_at")
	for _, idea := range ideas {
		var typeData []byte
		if idea.TypeData.Valid() {
			raw, err := json.Marshal(idea.TypeData)
			if err != nil {
				return fmt.Errorf("failed to encode typeData for %q: %w", idea.Title, err)
			}
			typeData = raw
		}
		photoURLs, err := json.Marshal(idea.PhotoURLs)
		if err != nil {
			return fmt.Errorf("failed to encode photo urls for %q: %w", idea.Title, err)
		}
		builder = builder.Values(
			idea.ID, idea.JarID, idea.CreatedBy, idea.Title, idea.Description,
			idea.Category, idea.Indoor, idea.DurationHours, idea.Cost,
			idea.ActivityLevel, idea.Details, idea.Address, idea.Website,
			idea.GoogleRating, photoURLs, idea.IdeaType, typeData, idea.CreatedAt)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build ideas insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save ideas: %w", err)
	}
	return nil
}
