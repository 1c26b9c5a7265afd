package article

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"voxpost/internal/services"
)

const (
	articlesCollection      = "articles"
	preferencesCollection   = "preferences"
	styleProfilesCollection = "style_profiles"

	mongoConnectTimeout = 10 * time.Second
)

// MongoStore keeps articles in MongoDB. Articles are keyed by article id and
// always filtered by owner.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// OpenMongo connects to uri and verifies the primary is reachable.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "open article store", "mongo uri is empty", nil)
	}
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database), now: time.Now}, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func articleFilter(userID, articleID string) bson.M {
	return bson.M{"_id": articleID, "user_id": userID}
}

func styleProfileKey(userID, profileID string) string {
	return userID + ":" + profileID
}

// updateDocument maps an Update onto a $set document.
func updateDocument(u Update, now time.Time) bson.M {
	set := bson.M{"updated_at": now.UTC()}
	for column, value := range u.Columns() {
		set[column] = value
	}
	return bson.M{"$set": set}
}

// Create inserts a new article document.
func (s *MongoStore) Create(ctx context.Context, a *Article) error {
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

	if _, err := s.db.Collection(articlesCollection).InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: user %s article %s", ErrExists, a.UserID, a.ArticleID)
		}
		return services.Wrap(services.ErrStoreWrite, "", "create article", a.ArticleID, err)
	}
	return nil
}

// Update applies a $set of the named fields.
func (s *MongoStore) Update(ctx context.Context, userID, articleID string, u Update) error {
	if err := validateIdentity(userID, articleID); err != nil {
		return err
	}
	res, err := s.db.Collection(articlesCollection).UpdateOne(ctx, articleFilter(userID, articleID), updateDocument(u, s.now()))
	if err != nil {
		return services.Wrap(services.ErrStoreWrite, "", "update article", articleID, err)
	}
	if res.MatchedCount == 0 {
		return notFound(userID, articleID)
	}
	return nil
}

// Get fetches one article.
func (s *MongoStore) Get(ctx context.Context, userID, articleID string) (*Article, error) {
	var a Article
	err := s.db.Collection(articlesCollection).FindOne(ctx, articleFilter(userID, articleID)).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(userID, articleID)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &a, nil
}

// List returns a user's articles, newest first.
func (s *MongoStore) List(ctx context.Context, userID string, limit int) ([]*Article, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(listLimit(limit)))
	cursor, err := s.db.Collection(articlesCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer cursor.Close(ctx)

	var articles []*Article
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	return articles, nil
}

// GetPreferences returns nil, nil when the user has none.
func (s *MongoStore) GetPreferences(ctx context.Context, userID string) (*Preferences, error) {
	var prefs Preferences
	err := s.db.Collection(preferencesCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&prefs)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return &prefs, nil
}

// GetStyleProfile returns nil, nil when the profile does not exist.
func (s *MongoStore) GetStyleProfile(ctx context.Context, userID, profileID string) (*StyleProfile, error) {
	var profile StyleProfile
	err := s.db.Collection(styleProfilesCollection).
		FindOne(ctx, bson.M{"_id": styleProfileKey(userID, profileID)}).
		Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get style profile: %w", err)
	}
	return &profile, nil
}

// PutPreferences upserts the user's preferences.
func (s *MongoStore) PutPreferences(ctx context.Context, p Preferences) error {
	if strings.TrimSpace(p.UserID) == "" {
		return services.Wrap(services.ErrValidation, "", "put preferences", "user id is required", nil)
	}
	p.UpdatedAt = s.now().UTC()
	_, err := s.db.Collection(preferencesCollection).
		ReplaceOne(ctx, bson.M{"_id": p.UserID}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return services.Wrap(services.ErrStoreWrite, "", "put preferences", p.UserID, err)
	}
	return nil
}

// PutStyleProfile upserts a style profile.
func (s *MongoStore) PutStyleProfile(ctx context.Context, p StyleProfile) error {
	if strings.TrimSpace(p.UserID) == "" || strings.TrimSpace(p.ID) == "" {
		return services.Wrap(services.ErrValidation, "", "put style profile", "user id and profile id are required", nil)
	}
	doc := bson.M{
		"_id":              styleProfileKey(p.UserID, p.ID),
		"user_id":          p.UserID,
		"profile_id":       p.ID,
		"name":             p.Name,
		"training_summary": p.TrainingSummary,
		"updated_at":       s.now().UTC(),
	}
	_, err := s.db.Collection(styleProfilesCollection).
		ReplaceOne(ctx, bson.M{"_id": doc["_id"]}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return services.Wrap(services.ErrStoreWrite, "", "put style profile", p.ID, err)
	}
	return nil
}
