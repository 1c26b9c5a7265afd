package article

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"voxpost/internal/services"
	"voxpost/internal/sqlitedb"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes.
const schemaVersion = 1

var articleColumns = []string{
	"user_id", "article_id", "title", "content", "status", "language",
	"cover_image_url", "blog_type", "word_count", "selected_model",
	"created_at", "updated_at",
}

// SQLiteStore keeps articles in a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite opens (creating if needed) the article database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "open article store", "sqlite path is empty", nil)
	}
	db, err := sqlitedb.Open(ctx, path, sqlitedb.Schema{Name: "articles", SQL: schemaSQL, Version: schemaVersion})
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) exec(ctx context.Context, builder sq.Sqlizer) (sql.Result, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return sqlitedb.Exec(ctx, s.db, query, args...)
}

// Create inserts a new article. Status defaults to processing and timestamps
// default to now.
func (s *SQLiteStore) Create(ctx context.Context, a *Article) error {
	if a == nil {
		return services.Wrap(services.ErrValidation, "", "create article", "article is nil", nil)
	}
	if err := validateIdentity(a.UserID, a.ArticleID); err != nil {
		return err
	}
	now := s.now().UTC()
	if a.Status == "" {
		a.Status = StatusProcessing
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	res, err := s.exec(ctx, sq.Insert("articles").
		Columns(articleColumns...).
		Values(
			a.UserID, a.ArticleID, a.Title, a.Content, string(a.Status), a.Language,
			sqlitedb.NullableString(a.CoverImageURL), a.BlogType, a.WordCount, a.SelectedModel,
			sqlitedb.FormatTime(a.CreatedAt), sqlitedb.FormatTime(a.UpdatedAt),
		).
		Suffix("ON CONFLICT(user_id, article_id) DO NOTHING"))
	if err != nil {
		return services.Wrap(services.ErrStoreWrite, "", "create article", a.ArticleID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: user %s article %s", ErrExists, a.UserID, a.ArticleID)
	}
	return nil
}

// Update overwrites the named fields and bumps updated_at.
func (s *SQLiteStore) Update(ctx context.Context, userID, articleID string, u Update) error {
	if err := validateIdentity(userID, articleID); err != nil {
		return err
	}
	cols := u.Columns()
	cols["updated_at"] = sqlitedb.FormatTime(s.now())

	res, err := s.exec(ctx, sq.Update("articles").
		SetMap(cols).
		Where(sq.Eq{"user_id": userID, "article_id": articleID}))
	if err != nil {
		return services.Wrap(services.ErrStoreWrite, "", "update article", articleID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrStoreWrite, "", "update article", "rows affected", err)
	}
	if affected == 0 {
		return notFound(userID, articleID)
	}
	return nil
}

// Get fetches one article.
func (s *SQLiteStore) Get(ctx context.Context, userID, articleID string) (*Article, error) {
	query, args, err := sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"user_id": userID, "article_id": articleID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var found *Article
	err = sqlitedb.RetryOnBusy(ctx, func() error {
		var scanErr error
		found, scanErr = scanArticle(s.db.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(userID, articleID)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return found, nil
}

// List returns a user's articles, newest first.
func (s *SQLiteStore) List(ctx context.Context, userID string, limit int) ([]*Article, error) {
	query, args, err := sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "article_id").
		Limit(uint64(listLimit(limit))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(sqlitedb.EnsureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []*Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return articles, nil
}

// GetPreferences returns nil, nil when the user has none.
func (s *SQLiteStore) GetPreferences(ctx context.Context, userID string) (*Preferences, error) {
	query, args, err := sq.Select("user_id", "tone", "heading_style", "emoji_policy", "updated_at").
		From("preferences").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var (
		prefs   Preferences
		updated string
	)
	err = s.db.QueryRowContext(sqlitedb.EnsureContext(ctx), query, args...).
		Scan(&prefs.UserID, &prefs.Tone, &prefs.HeadingStyle, &prefs.EmojiPolicy, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	prefs.UpdatedAt, _ = sqlitedb.ParseTime(updated)
	return &prefs, nil
}

// GetStyleProfile returns nil, nil when the profile does not exist.
func (s *SQLiteStore) GetStyleProfile(ctx context.Context, userID, profileID string) (*StyleProfile, error) {
	query, args, err := sq.Select("user_id", "profile_id", "name", "training_summary", "updated_at").
		From("style_profiles").
		Where(sq.Eq{"user_id": userID, "profile_id": profileID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var (
		profile StyleProfile
		updated string
	)
	err = s.db.QueryRowContext(sqlitedb.EnsureContext(ctx), query, args...).
		Scan(&profile.UserID, &profile.ID, &profile.Name, &profile.TrainingSummary, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get style profile: %w", err)
	}
	profile.UpdatedAt, _ = sqlitedb.ParseTime(updated)
	return &profile, nil
}

// PutPreferences upserts the user's preferences.
func (s *SQLiteStore) PutPreferences(ctx context.Context, p Preferences) error {
	if strings.TrimSpace(p.UserID) == "" {
		return services.Wrap(services.ErrValidation, "", "put preferences", "user id is required", nil)
	}
	_, err := s.exec(ctx, sq.Insert("preferences").
		Columns("user_id", "tone", "heading_style", "emoji_policy", "updated_at").
		Values(p.UserID, p.Tone, p.HeadingStyle, p.EmojiPolicy, sqlitedb.FormatTime(s.now())).
		Suffix("ON CONFLICT(user_id) DO UPDATE SET tone = excluded.tone, heading_style = excluded.heading_style, " +
			"emoji_policy = excluded.emoji_policy, updated_at = excluded.updated_at"))
	if err != nil {
		return services.Wrap(services.ErrStoreWrite, "", "put preferences", p.UserID, err)
	}
	return nil
}

// PutStyleProfile upserts a style profile.
func (s *SQLiteStore) PutStyleProfile(ctx context.Context, p StyleProfile) error {
	if strings.TrimSpace(p.UserID) == "" || strings.TrimSpace(p.ID) == "" {
		return services.Wrap(services.ErrValidation, "", "put style profile", "user id and profile id are required", nil)
	}
	_, err := s.exec(ctx, sq.Insert("style_profiles").
		Columns("user_id", "profile_id", "name", "training_summary", "updated_at").
		Values(p.UserID, p.ID, p.Name, p.TrainingSummary, sqlitedb.FormatTime(s.now())).
		Suffix("ON CONFLICT(user_id, profile_id) DO UPDATE SET name = excluded.name, " +
			"training_summary = excluded.training_summary, updated_at = excluded.updated_at"))
	if err != nil {
		return services.Wrap(services.ErrStoreWrite, "", "put style profile", p.ID, err)
	}
	return nil
}

func scanArticle(scanner interface{ Scan(dest ...any) error }) (*Article, error) {
	var (
		a          Article
		status     string
		cover      sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&a.UserID,
		&a.ArticleID,
		&a.Title,
		&a.Content,
		&status,
		&a.Language,
		&cover,
		&a.BlogType,
		&a.WordCount,
		&a.SelectedModel,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	a.Status = Status(status)
	a.CoverImageURL = cover.String
	if created, err := sqlitedb.ParseTime(createdRaw); err == nil {
		a.CreatedAt = created
	}
	if updated, err := sqlitedb.ParseTime(updatedRaw); err == nil {
		a.UpdatedAt = updated
	}
	return &a, nil
}
