package pipeline

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"voxpost/internal/metrics"
)

// ImageResult is the outcome of one image call. URL is empty on failure.
type ImageResult struct {
	Description string `json:"description"`
	URL         string `json:"url"`
	Error       string `json:"error,omitempty"`
}

type imageTask struct {
	kind   string
	prompt string
	result *ImageResult
}

// gatherImages runs the cover call and one call per placeholder with at most
// limit calls in flight. Every task records its own outcome; one failure never
// cancels the others.
func gatherImages(ctx context.Context, gen ImageGenerator, limit int, summary string, descriptions []string) (ImageResult, []ImageResult, int) {
	cover := ImageResult{Description: "cover"}
	inline := make([]ImageResult, len(descriptions))
	tasks := make([]imageTask, 0, len(descriptions)+1)
	tasks = append(tasks, imageTask{kind: "cover", prompt: coverPrompt(summary), result: &cover})
	for i, desc := range descriptions {
		inline[i].Description = desc
		tasks = append(tasks, imageTask{kind: "placeholder", prompt: desc, result: &inline[i]})
	}

	if limit <= 0 {
		limit = 1
	}
	var (
		g      errgroup.Group
		failed atomic.Int32
	)
	g.SetLimit(limit)
	for _, task := range tasks {
		g.Go(func() error {
			if task.prompt == "" {
				task.result.Error = "empty image description"
				failed.Add(1)
				metrics.ImagesTotal.WithLabelValues(task.kind, "skipped").Inc()
				return nil
			}
			url, err := gen.Generate(ctx, task.prompt)
			if err == nil && url == "" {
				err = errEmptyImage
			}
			if err != nil {
				task.result.Error = err.Error()
				failed.Add(1)
				outcome := "failed"
				if ctx.Err() != nil {
					outcome = "cancelled"
				}
				metrics.ImagesTotal.WithLabelValues(task.kind, outcome).Inc()
				return nil
			}
			task.result.URL = url
			metrics.ImagesTotal.WithLabelValues(task.kind, "ok").Inc()
			return nil
		})
	}
	_ = g.Wait()
	return cover, inline, int(failed.Load())
}
