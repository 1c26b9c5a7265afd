package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vincent-petithory/dataurl"
	"golang.org/x/text/language"

	"voxpost/internal/services"
)

// DefaultModel selects no style profile.
const DefaultModel = "default"

const (
	defaultLanguage  = "en"
	defaultBlogType  = "standard"
	defaultWordCount = "medium"
)

// BlogTypes lists the accepted blogType values.
var BlogTypes = []string{"standard", "listicle", "how-to", "opinion", "news", "tutorial", "review", "personal"}

// Job is the trigger event for one article generation run.
type Job struct {
	ArticleID     string `json:"articleId" validate:"required,max=128,trimmed"`
	UserID        string `json:"userId" validate:"required,max=128,trimmed"`
	AudioDataURI  string `json:"audioDataUri" validate:"required,audio_data_uri"`
	SelectedModel string `json:"selectedModel" validate:"required,max=128,trimmed"`
	Language      string `json:"language,omitempty" validate:"max=35"`
	BlogType      string `json:"blogType,omitempty" validate:"required,oneof=standard listicle how-to opinion news tutorial review personal"`
	WordCount     string `json:"wordCount,omitempty" validate:"required,word_count"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("trimmed", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return strings.TrimSpace(value) == value
	})
	_ = v.RegisterValidation("audio_data_uri", func(fl validator.FieldLevel) bool {
		return checkAudioDataURI(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("word_count", func(fl validator.FieldLevel) bool {
		return validWordCount(fl.Field().String())
	})
	return v
}

// ParseJob decodes and validates a trigger event.
func ParseJob(data []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, services.Wrap(services.ErrMalformedJob, "", "parse job", "invalid JSON", err)
	}
	job.Normalize()
	if err := job.Validate(); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Normalize fills defaults and canonicalizes the language tag. Identity
// fields are left untouched so surrounding whitespace fails validation.
func (j *Job) Normalize() {
	j.Language = normalizeLanguage(j.Language)
	j.BlogType = strings.ToLower(strings.TrimSpace(j.BlogType))
	if j.BlogType == "" {
		j.BlogType = defaultBlogType
	}
	j.WordCount = strings.ToLower(strings.TrimSpace(j.WordCount))
	if j.WordCount == "" {
		j.WordCount = defaultWordCount
	}
}

// Validate reports every schema violation as one ErrMalformedJob error.
func (j Job) Validate() error {
	err := validate.Struct(j)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return services.Wrap(services.ErrMalformedJob, "", "validate job", "", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describeFieldError(j, fe))
	}
	return services.Wrap(services.ErrMalformedJob, "", "validate job", strings.Join(problems, "; "), nil)
}

// Payload encodes the job for the queue.
func (j Job) Payload() (json.RawMessage, error) {
	return json.Marshal(j)
}

func describeFieldError(j Job, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "trimmed":
		return fe.Field() + " must not have surrounding whitespace"
	case "max":
		return fmt.Sprintf("%s exceeds %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.Join(BlogTypes, ", "))
	case "word_count":
		return fe.Field() + " must be short, medium, long, or a positive number"
	case "audio_data_uri":
		return fmt.Sprintf("%s is invalid: %v", fe.Field(), checkAudioDataURI(j.AudioDataURI))
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func checkAudioDataURI(value string) error {
	decoded, err := dataurl.DecodeString(value)
	if err != nil {
		return fmt.Errorf("not a data uri: %w", err)
	}
	if decoded.Encoding != dataurl.EncodingBase64 {
		return errors.New("payload must be base64 encoded")
	}
	mediaType := strings.ToLower(decoded.MediaType.Type + "/" + decoded.MediaType.Subtype)
	if !strings.HasPrefix(mediaType, "audio/") && mediaType != "video/webm" {
		return fmt.Errorf("media type %s is not audio", mediaType)
	}
	if len(decoded.Data) == 0 {
		return errors.New("audio payload is empty")
	}
	return nil
}

func validWordCount(value string) bool {
	switch value {
	case "short", "medium", "long":
		return true
	}
	n, err := strconv.Atoi(value)
	return err == nil && n > 0
}

func normalizeLanguage(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultLanguage
	}
	tag, err := language.Parse(value)
	if err != nil {
		return defaultLanguage
	}
	return tag.String()
}
