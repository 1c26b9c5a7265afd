package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"voxpost/internal/article"
	"voxpost/internal/queue"
	"voxpost/internal/services"
)

func (s *server) listJobs(c *gin.Context) {
	var statuses []queue.Status
	for _, raw := range strings.Split(c.Query("status"), ",") {
		raw = strings.ToLower(strings.TrimSpace(raw))
		if raw == "" {
			continue
		}
		status, ok := queue.ParseStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown status " + raw})
			return
		}
		statuses = append(statuses, status)
	}
	jobs, err := s.deps.Jobs.List(c.Request.Context(), statuses...)
	if err != nil {
		writeError(c, err)
		return
	}
	out := JobList{Jobs: make([]Job, 0, len(jobs))}
	for _, job := range jobs {
		out.Jobs = append(out.Jobs, FromJob(job))
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) getJob(c *gin.Context) {
	ctx := c.Request.Context()
	job, err := s.deps.Jobs.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "job not found"})
		return
	}
	checkpoints, err := s.deps.Jobs.Checkpoints(ctx, job.ArticleID)
	if err != nil {
		writeError(c, err)
		return
	}
	detail := JobDetail{Job: FromJob(job), Checkpoints: FromCheckpoints(checkpoints)}
	for _, cp := range checkpoints {
		detail.Job.Steps = append(detail.Job.Steps, cp.Step)
	}
	c.JSON(http.StatusOK, detail)
}

// retryJob returns a failed job to pending with its checkpoints intact and
// puts the article back into processing.
func (s *server) retryJob(c *gin.Context) {
	ctx := c.Request.Context()
	job, err := s.deps.Jobs.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "job not found"})
		return
	}
	if job.Status != queue.StatusFailed {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "only failed jobs can be retried; job is " + string(job.Status)})
		return
	}
	if err := s.deps.Articles.Update(ctx, job.UserID, job.ArticleID, article.Reprocess()); err != nil {
		writeError(c, err)
		return
	}
	count, err := s.deps.Jobs.RetryFailed(ctx, job.ArticleID)
	if err != nil {
		writeError(c, err)
		return
	}
	if count > 0 && s.deps.Notify != nil {
		s.deps.Notify()
	}
	c.JSON(http.StatusOK, CountResponse{Count: count})
}

func (s *server) clearCompletedJobs(c *gin.Context) {
	count, err := s.deps.Jobs.ClearCompleted(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{Count: count})
}

func (s *server) status(c *gin.Context) {
	ctx := c.Request.Context()
	payload := Status{
		Version:   s.deps.Version,
		Transport: s.deps.Transport,
		Store:     s.deps.StoreBackend,
	}
	if s.deps.Workflow != nil {
		payload.Workflow = FromStatusSummary(s.deps.Workflow.Status(ctx))
	} else {
		stats, err := s.deps.Jobs.Stats(ctx)
		if err != nil {
			writeError(c, err)
			return
		}
		payload.Workflow.QueueStats = make(map[string]int, len(stats))
		for status, count := range stats {
			payload.Workflow.QueueStats[string(status)] = count
		}
		payload.Workflow.Active = []string{}
	}
	c.JSON(http.StatusOK, payload)
}

func writeError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrMalformedJob), errors.Is(err, services.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, article.ErrExists):
		code = http.StatusConflict
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}
