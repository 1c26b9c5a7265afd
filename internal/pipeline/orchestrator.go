package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"voxpost/internal/article"
	"voxpost/internal/logging"
	"voxpost/internal/metrics"
	"voxpost/internal/services"
	"voxpost/internal/services/writer"
)

const defaultImageConcurrency = 4

// ErrInterrupted marks a run stopped by context cancellation before it
// reached a terminal state.
var ErrInterrupted = errors.New("pipeline run interrupted")

// Dependencies are the collaborators an Orchestrator needs.
type Dependencies struct {
	Articles    ArticleStore
	Checkpoints CheckpointStore
	Transcriber Transcriber
	Writer      ContentGenerator
	Images      ImageGenerator
	Logger      *slog.Logger
}

// Orchestrator runs jobs through the pipeline steps.
type Orchestrator struct {
	articles    ArticleStore
	checkpoints CheckpointStore
	transcriber Transcriber
	writer      ContentGenerator
	images      ImageGenerator
	logger      *slog.Logger
	imageLimit  int
	now         func() time.Time
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithImageConcurrency caps concurrent image calls per job.
func WithImageConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.imageLimit = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New validates deps and constructs an Orchestrator.
func New(deps Dependencies, opts ...Option) (*Orchestrator, error) {
	var missing []string
	if deps.Articles == nil {
		missing = append(missing, "article store")
	}
	if deps.Checkpoints == nil {
		missing = append(missing, "checkpoint store")
	}
	if deps.Transcriber == nil {
		missing = append(missing, "transcriber")
	}
	if deps.Writer == nil {
		missing = append(missing, "content generator")
	}
	if deps.Images == nil {
		missing = append(missing, "image generator")
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "", "new orchestrator",
			"missing "+strings.Join(missing, ", "), nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		articles:    deps.Articles,
		checkpoints: deps.Checkpoints,
		transcriber: deps.Transcriber,
		writer:      deps.Writer,
		images:      deps.Images,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		imageLimit:  defaultImageConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// run tracks one invocation.
type run struct {
	job    Job
	state  State
	out    runState
	logger *slog.Logger
}

// Run executes every step not yet checkpointed for job. A malformed job is
// rejected before any step and without any article write. When the persist
// checkpoint already exists the call is a no-op. Cancelling ctx mid-step
// returns ErrInterrupted without a terminal write.
func (o *Orchestrator) Run(ctx context.Context, job Job) error {
	job.Normalize()
	if err := job.Validate(); err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("rejected").Inc()
		return err
	}

	ctx = services.WithArticleID(ctx, job.ArticleID)
	ctx = services.WithUserID(ctx, job.UserID)
	r := &run{job: job, state: StateCreated, logger: logging.WithContext(ctx, o.logger)}

	saved, err := o.checkpoints.LoadCheckpoints(ctx, job.ArticleID)
	if err != nil {
		if ctx.Err() != nil {
			return o.interrupt(r, "", err)
		}
		return o.fail(ctx, r, "", services.Wrap(services.ErrStoreWrite, "", "load checkpoints", "", err))
	}
	if _, ok := saved[string(StepPersist)]; ok {
		r.logger.Info("article already persisted; skipping run",
			logging.String(logging.FieldEventType, "run_skipped"))
		metrics.PipelineRunsTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	done := make(map[Step]bool, len(Steps))
	for _, step := range Steps {
		raw, ok := saved[string(step)]
		if !ok {
			break
		}
		if err := r.out.restore(step, raw); err != nil {
			return o.fail(ctx, r, step, services.Wrap(services.ErrStoreWrite, string(step), "restore checkpoint", "", err))
		}
		done[step] = true
		metrics.StepsResumedTotal.WithLabelValues(string(step)).Inc()
	}
	o.advance(ctx, r, ResumeState(done))
	if len(done) > 0 {
		r.logger.Info("resuming from checkpoints",
			logging.String(logging.FieldEventType, "run_resumed"),
			logging.Int("completed_steps", len(done)),
			logging.String("state", string(r.state)))
	} else {
		r.logger.Info("pipeline run started", logging.String(logging.FieldEventType, "run_started"))
	}

	for _, step := range Steps {
		if done[step] {
			continue
		}
		stepCtx := services.WithStep(ctx, string(step))
		started := o.now()
		err := o.execute(stepCtx, r, step)
		elapsed := o.now().Sub(started)
		if err != nil {
			if ctx.Err() != nil {
				metrics.ObserveStep(string(step), "interrupted", elapsed)
				return o.interrupt(r, step, err)
			}
			metrics.ObserveStep(string(step), "failed", elapsed)
			return o.fail(stepCtx, r, step, err)
		}
		metrics.ObserveStep(string(step), "ok", elapsed)

		payload, err := r.out.encode(step)
		if err == nil {
			err = o.checkpoints.SaveCheckpoint(stepCtx, job.ArticleID, string(step), payload)
		}
		if err != nil {
			if step == StepPersist {
				// The completed write already happened; a failure write now would be a second terminal write.
				logging.WarnWithContext(logging.WithContext(stepCtx, o.logger), "persist checkpoint not recorded", "checkpoint_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "a retry would rewrite the completed article"))
				o.advance(stepCtx, r, StatePersisted)
				break
			}
			if ctx.Err() != nil {
				return o.interrupt(r, step, err)
			}
			return o.fail(stepCtx, r, step, services.Wrap(services.ErrStoreWrite, string(step), "save checkpoint", "", err))
		}
		o.advance(stepCtx, r, step.completedState())
		r.logger.Debug("step completed",
			logging.String(logging.FieldStep, string(step)),
			logging.Duration("elapsed", elapsed))
	}

	metrics.PipelineRunsTotal.WithLabelValues("completed").Inc()
	r.logger.Info("article completed",
		logging.String(logging.FieldEventType, "run_completed"),
		logging.String("title", r.out.persist.Title))
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run, step Step) error {
	switch step {
	case StepTranscribe:
		return o.transcribe(ctx, r)
	case StepFetchContext:
		return o.fetchContext(ctx, r)
	case StepGenerateContent:
		return o.generateContent(ctx, r)
	case StepGenerateImages:
		return o.generateImages(ctx, r)
	case StepPersist:
		return o.persist(ctx, r)
	default:
		return services.Wrap(services.ErrConfiguration, string(step), "execute", "unknown step", nil)
	}
}

func (o *Orchestrator) transcribe(ctx context.Context, r *run) error {
	text, err := o.transcriber.Transcribe(ctx, r.job.AudioDataURI, r.job.Language)
	if err != nil {
		return services.Wrap(services.ErrTranscription, string(StepTranscribe), "transcribe audio", "", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return services.Wrap(services.ErrEmptyTranscription, string(StepTranscribe), "transcribe audio",
			"transcriber returned no text", nil)
	}
	r.out.transcribe = TranscribeOutput{Transcription: text}
	return nil
}

func (o *Orchestrator) fetchContext(ctx context.Context, r *run) error {
	prefs, err := o.articles.GetPreferences(ctx, r.job.UserID)
	if err != nil {
		return services.Wrap(services.ErrContextLoad, string(StepFetchContext), "load preferences", "", err)
	}
	out := ContextOutput{}
	if prefs != nil {
		out.Preferences = *prefs
	}
	if r.job.SelectedModel != DefaultModel {
		profile, err := o.articles.GetStyleProfile(ctx, r.job.UserID, r.job.SelectedModel)
		if err != nil {
			return services.Wrap(services.ErrContextLoad, string(StepFetchContext), "load style profile", r.job.SelectedModel, err)
		}
		if profile != nil {
			out.StyleGuide = profile.TrainingSummary
		} else {
			r.logger.Info("style profile not found; using default style",
				logging.String(logging.FieldEventType, "style_profile_missing"),
				logging.String("style_profile", r.job.SelectedModel))
		}
	}
	r.out.context = out
	return nil
}

func (o *Orchestrator) generateContent(ctx context.Context, r *run) error {
	document, err := o.writer.Generate(ctx, writer.Request{
		Transcript:  r.out.transcribe.Transcription,
		Language:    r.job.Language,
		Preferences: r.out.context.Preferences,
		StyleGuide:  r.out.context.StyleGuide,
		BlogType:    r.job.BlogType,
		WordCount:   r.job.WordCount,
	})
	if err != nil {
		return services.Wrap(services.ErrContentGeneration, string(StepGenerateContent), "generate document", "", err)
	}
	if strings.TrimSpace(document) == "" {
		return services.Wrap(services.ErrContentGeneration, string(StepGenerateContent), "generate document",
			"generator returned an empty document", nil)
	}
	r.out.content = ContentOutput{Document: document}
	return nil
}

func (o *Orchestrator) generateImages(ctx context.Context, r *run) error {
	document := r.out.content.Document
	title, body := SplitTitle(document)
	descriptions := FindPlaceholders(document)

	cover, inline, failed := gatherImages(ctx, o.images, o.imageLimit, CoverSummary(title, body), descriptions)
	if err := ctx.Err(); err != nil {
		// Calls cut short by cancellation are not image failures.
		return err
	}
	if failed > 0 {
		attrs := []logging.Attr{
			logging.Int("failed_images", failed),
			logging.Int("placeholders", len(descriptions)),
			logging.String(logging.FieldImpact, "failed images are omitted from the article"),
		}
		if cover.Error != "" {
			attrs = append(attrs, logging.String("cover_error", cover.Error))
		}
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "some images failed", "image_generation_partial", attrs...)
	}

	images := make([]ImageResult, 0, len(inline)+1)
	images = append(images, cover)
	images = append(images, inline...)
	r.out.images = ImagesOutput{
		Document:      ReplacePlaceholders(document, inline),
		CoverImageURL: cover.URL,
		Images:        images,
	}
	return nil
}

func (o *Orchestrator) persist(ctx context.Context, r *run) error {
	title, body := SplitTitle(r.out.images.Document)
	if err := o.articles.Update(ctx, r.job.UserID, r.job.ArticleID,
		article.Completed(title, body, r.out.images.CoverImageURL)); err != nil {
		return services.Wrap(services.ErrStoreWrite, string(StepPersist), "write completed article", "", err)
	}
	r.out.persist = PersistOutput{Title: title, CompletedAt: o.now().UTC()}
	return nil
}

// fail records the terminal failure on the article and returns cause, joined
// with the failure-write error when that write fails too.
func (o *Orchestrator) fail(ctx context.Context, r *run, step Step, cause error) error {
	ctx = context.WithoutCancel(ctx)
	o.advance(ctx, r, StateFailed)
	metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
	metrics.PipelineFailuresTotal.WithLabelValues(stepLabel(step), services.Kind(cause)).Inc()

	logger := logging.WithContext(ctx, o.logger)
	writeErr := o.articles.Update(ctx, r.job.UserID, r.job.ArticleID, article.Failed(FailureTitle, cause.Error()))
	if writeErr != nil {
		logging.ErrorWithContext(logger, "failure record not written", "failure_write_failed",
			logging.Error(writeErr),
			logging.String(logging.FieldErrorHint, "check the article store; the article stays in processing"))
		return errors.Join(cause, services.Wrap(services.ErrStoreWrite, stepLabel(step), "write failed article", "", writeErr))
	}
	logging.ErrorWithContext(logger, "pipeline run failed", "run_failed",
		logging.Error(cause),
		logging.String("error_kind", services.Kind(cause)))
	return cause
}

// interrupt ends a run whose context was cancelled mid-step. Nothing terminal
// is written; the checkpoints taken so far let the next run resume.
func (o *Orchestrator) interrupt(r *run, step Step, cause error) error {
	metrics.PipelineRunsTotal.WithLabelValues("interrupted").Inc()
	r.logger.Info("pipeline run interrupted",
		logging.String(logging.FieldEventType, "run_interrupted"),
		logging.String(logging.FieldStep, stepLabel(step)),
		logging.Error(cause))
	return errors.Join(ErrInterrupted, cause)
}

func (o *Orchestrator) advance(ctx context.Context, r *run, to State) {
	if r.state == to {
		return
	}
	if !transitionAllowed(r.state, to) {
		r.logger.Warn("ignoring invalid state transition",
			logging.String("from", string(r.state)),
			logging.String("to", string(to)))
		return
	}
	r.state = to
	if err := o.checkpoints.SetPipelineState(ctx, r.job.ArticleID, string(to)); err != nil {
		r.logger.Warn("pipeline state not recorded",
			logging.String("state", string(to)),
			logging.Error(err))
	}
}

func stepLabel(step Step) string {
	if step == "" {
		return "setup"
	}
	return string(step)
}
