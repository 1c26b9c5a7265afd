package article

import (
	"context"
	"fmt"
	"strings"

	"voxpost/internal/config"
	"voxpost/internal/services"
)

// DefaultListLimit bounds List when callers pass a non-positive limit.
const DefaultListLimit = 50

// Store is the narrow CRUD surface over article records and user context.
//
// Get and Update return an error wrapping services.ErrNotFound for a missing
// article. GetPreferences and GetStyleProfile return nil, nil when the record
// is absent.
type Store interface {
	Create(ctx context.Context, a *Article) error
	Update(ctx context.Context, userID, articleID string, u Update) error
	Get(ctx context.Context, userID, articleID string) (*Article, error)
	List(ctx context.Context, userID string, limit int) ([]*Article, error)
	GetPreferences(ctx context.Context, userID string) (*Preferences, error)
	GetStyleProfile(ctx context.Context, userID, profileID string) (*StyleProfile, error)
	PutPreferences(ctx context.Context, p Preferences) error
	PutStyleProfile(ctx context.Context, p StyleProfile) error
	Close() error
}

// Open returns the store backend selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "open article store", "config is nil", nil)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Store.Backend)) {
	case "", config.StoreBackendSQLite:
		return OpenSQLite(ctx, cfg.Store.SQLitePath)
	case config.StoreBackendMongo:
		return OpenMongo(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "", "open article store",
			fmt.Sprintf("unknown backend %q", cfg.Store.Backend), nil)
	}
}

func notFound(userID, articleID string) error {
	return services.Wrap(services.ErrNotFound, "", "article",
		fmt.Sprintf("user %s article %s", userID, articleID), nil)
}

func validateIdentity(userID, articleID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(articleID) == "" {
		return services.Wrap(services.ErrValidation, "", "article", "user id and article id are required", nil)
	}
	return nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MongoStore)(nil)
)
