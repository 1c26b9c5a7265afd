package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"voxpost/internal/article"
	"voxpost/internal/logging"
	"voxpost/internal/pipeline"
)

func (s *server) createArticle(c *gin.Context) {
	var req CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.ArticleID == "" {
		req.ArticleID = s.newID()
	}
	job := pipeline.Job{
		ArticleID:     req.ArticleID,
		UserID:        req.UserID,
		AudioDataURI:  req.AudioDataURI,
		SelectedModel: req.SelectedModel,
		Language:      req.Language,
		BlogType:      req.BlogType,
		WordCount:     req.WordCount,
	}
	job.Normalize()
	if err := job.Validate(); err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	record := &article.Article{
		UserID:        job.UserID,
		ArticleID:     job.ArticleID,
		Status:        article.StatusProcessing,
		Language:      job.Language,
		BlogType:      job.BlogType,
		WordCount:     job.WordCount,
		SelectedModel: job.SelectedModel,
	}
	if err := s.deps.Articles.Create(ctx, record); err != nil {
		writeError(c, err)
		return
	}

	queued, err := s.deps.Enqueuer.Enqueue(ctx, job)
	if err != nil {
		// No run will ever reach this article, so this is its terminal write.
		message := "could not queue article generation: " + err.Error()
		if werr := s.deps.Articles.Update(ctx, job.UserID, job.ArticleID, article.Failed(pipeline.FailureTitle, message)); werr != nil {
			logging.ErrorWithContext(logging.WithContext(ctx, s.logger), "failed to record enqueue failure", "enqueue_failure_write_failed",
				logging.String(logging.FieldArticleID, job.ArticleID),
				logging.Error(werr))
		}
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, CreateArticleResponse{
		ArticleID: job.ArticleID,
		UserID:    job.UserID,
		Status:    article.StatusProcessing,
		Queued:    queued,
	})
}

func (s *server) listArticles(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}
	articles, err := s.deps.Articles.List(c.Request.Context(), c.Param("user"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if articles == nil {
		articles = []*article.Article{}
	}
	c.JSON(http.StatusOK, ArticleList{Articles: articles})
}

func (s *server) getArticle(c *gin.Context) {
	record, err := s.deps.Articles.Get(c.Request.Context(), c.Param("user"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *server) putPreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	ctx := c.Request.Context()
	userID := c.Param("user")
	if err := s.deps.Articles.PutPreferences(ctx, article.Preferences{
		UserID:       userID,
		Tone:         req.Tone,
		HeadingStyle: req.HeadingStyle,
		EmojiPolicy:  req.EmojiPolicy,
	}); err != nil {
		writeError(c, err)
		return
	}
	prefs, err := s.deps.Articles.GetPreferences(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *server) putStyleProfile(c *gin.Context) {
	var req StyleProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	ctx := c.Request.Context()
	userID, profileID := c.Param("user"), c.Param("id")
	if profileID == pipeline.DefaultModel {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "profile id " + pipeline.DefaultModel + " is reserved"})
		return
	}
	if err := s.deps.Articles.PutStyleProfile(ctx, article.StyleProfile{
		UserID:          userID,
		ID:              profileID,
		Name:            req.Name,
		TrainingSummary: req.TrainingSummary,
	}); err != nil {
		writeError(c, err)
		return
	}
	profile, err := s.deps.Articles.GetStyleProfile(ctx, userID, profileID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
