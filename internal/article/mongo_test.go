package article

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestUpdateDocumentSetsNamedFields(t *testing.T) {
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	doc := updateDocument(Failed("Article Generation Failed", "boom"), now)

	set, ok := doc["$set"].(bson.M)
	if !ok {
		t.Fatalf("expected $set document, got %#v", doc)
	}
	if set["status"] != "failed" || set["content"] != "boom" || set["title"] != "Article Generation Failed" {
		t.Fatalf("unexpected $set %#v", set)
	}
	if _, ok := set["cover_image_url"]; ok {
		t.Fatalf("cover image must not be written by a failure update: %#v", set)
	}
	if set["updated_at"] != now {
		t.Fatalf("expected updated_at %v, got %v", now, set["updated_at"])
	}
}

func TestArticleFilterScopesOwner(t *testing.T) {
	filter := articleFilter("u1", "a1")
	if filter["_id"] != "a1" || filter["user_id"] != "u1" {
		t.Fatalf("unexpected filter %#v", filter)
	}
	if styleProfileKey("u1", "p1") != "u1:p1" {
		t.Fatalf("unexpected style profile key %q", styleProfileKey("u1", "p1"))
	}
}
