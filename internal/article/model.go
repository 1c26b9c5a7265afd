package article

import (
	"errors"
	"time"
)

// Status is the lifecycle state stored on an article.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether the status ends a run.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ErrExists is returned by Create when the (user, article) identity is taken.
var ErrExists = errors.New("article already exists")

// Article is one generated blog post owned by a user.
type Article struct {
	UserID        string    `json:"userId" bson:"user_id"`
	ArticleID     string    `json:"articleId" bson:"_id"`
	Title         string    `json:"title" bson:"title"`
	Content       string    `json:"content" bson:"content"`
	Status        Status    `json:"status" bson:"status"`
	Language      string    `json:"language" bson:"language"`
	CoverImageURL string    `json:"coverImageUrl,omitempty" bson:"cover_image_url,omitempty"`
	BlogType      string    `json:"blogType,omitempty" bson:"blog_type"`
	WordCount     string    `json:"wordCount,omitempty" bson:"word_count"`
	SelectedModel string    `json:"selectedModel,omitempty" bson:"selected_model"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updated_at"`
}

// Update names the fields a partial write overwrites. Nil fields are left
// untouched.
type Update struct {
	Title         *string
	Content       *string
	CoverImageURL *string
	Status        *Status
}

// IsEmpty reports whether the update sets no fields.
func (u Update) IsEmpty() bool {
	return u.Title == nil && u.Content == nil && u.CoverImageURL == nil && u.Status == nil
}

// Columns returns column name to value for every set field.
func (u Update) Columns() map[string]any {
	cols := make(map[string]any, 4)
	if u.Title != nil {
		cols["title"] = *u.Title
	}
	if u.Content != nil {
		cols["content"] = *u.Content
	}
	if u.CoverImageURL != nil {
		cols["cover_image_url"] = *u.CoverImageURL
	}
	if u.Status != nil {
		cols["status"] = string(*u.Status)
	}
	return cols
}

// Completed is the success-terminal write.
func Completed(title, content, coverImageURL string) Update {
	status := StatusCompleted
	return Update{Title: &title, Content: &content, CoverImageURL: &coverImageURL, Status: &status}
}

// Failed is the failure-terminal write. Content carries the raw error message.
func Failed(title, message string) Update {
	status := StatusFailed
	return Update{Title: &title, Content: &message, Status: &status}
}

// Reprocess returns an article to processing before an operator retry.
func Reprocess() Update {
	status := StatusProcessing
	return Update{Status: &status}
}

// Preferences are the user's writing preferences.
type Preferences struct {
	UserID       string    `json:"userId" bson:"_id"`
	Tone         string    `json:"tone" bson:"tone"`
	HeadingStyle string    `json:"headingStyle" bson:"heading_style"`
	EmojiPolicy  string    `json:"emojiPolicy" bson:"emoji_policy"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// IsZero reports whether no preference is set.
func (p Preferences) IsZero() bool {
	return p.Tone == "" && p.HeadingStyle == "" && p.EmojiPolicy == ""
}

// StyleProfile is a trained writing style the user can select per article.
type StyleProfile struct {
	UserID          string    `json:"userId" bson:"user_id"`
	ID              string    `json:"id" bson:"profile_id"`
	Name            string    `json:"name" bson:"name"`
	TrainingSummary string    `json:"trainingSummary" bson:"training_summary"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updated_at"`
}
