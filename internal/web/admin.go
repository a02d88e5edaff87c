package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"PortfolioCMS/internal/composer"
	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/usecase"
)

const (
	statusPublished  = "published"
	defaultCategory  = "general"
	maxGeneratePosts = 10
)

func (s *Server) adminListPosts(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	posts, err := s.deps.Store.ListArticles(c.Request.Context(), domain.ArticleFilter{
		Category: q.Category,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		s.respondError(c, "admin list posts", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(posts))
}

type postRequest struct {
	Title          string   `json:"title" binding:"required,max=300"`
	Content        string   `json:"content" binding:"required"`
	Excerpt        string   `json:"excerpt" binding:"max=1000"`
	Slug           string   `json:"slug" binding:"max=300"`
	Category       string   `json:"category" binding:"max=100"`
	Tags           []string `json:"tags" binding:"max=20,dive,max=50"`
	Status         string   `json:"status" binding:"omitempty,oneof=published draft"`
	SEOTitle       string   `json:"seoTitle" binding:"max=300"`
	SEODescription string   `json:"seoDescription" binding:"max=500"`
}

func (r postRequest) slug() string {
	if strings.TrimSpace(r.Slug) != "" {
		return composer.Slugify(r.Slug)
	}
	return composer.Slugify(r.Title)
}

func (r postRequest) category() string {
	if c := strings.TrimSpace(r.Category); c != "" {
		return c
	}
	return defaultCategory
}

func (s *Server) adminCreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	draft := domain.NewArticle{
		Title:          req.Title,
		Slug:           req.slug(),
		Excerpt:        req.Excerpt,
		Content:        req.Content,
		Category:       req.category(),
		Tags:           nonNil(req.Tags),
		Author:         s.author,
		ReadTime:       composer.ReadTime(req.Content),
		SEOTitle:       req.SEOTitle,
		SEODescription: req.SEODescription,
	}
	if req.Status == statusPublished {
		draft.Publish(s.deps.Now())
	}

	article, err := s.deps.Store.CreateArticle(c.Request.Context(), draft)
	if err != nil {
		s.respondError(c, "admin create post", err)
		return
	}
	s.reindex(article)
	c.JSON(http.StatusCreated, gin.H{"success": true, "postId": article.ID, "post": article})
}

func (s *Server) adminUpdatePost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	slug := req.slug()
	category := req.category()
	readTime := composer.ReadTime(req.Content)
	patch := domain.ArticlePatch{
		Title:          &req.Title,
		Slug:           &slug,
		Excerpt:        &req.Excerpt,
		Content:        &req.Content,
		Category:       &category,
		Tags:           nonNil(req.Tags),
		ReadTime:       &readTime,
		SEOTitle:       &req.SEOTitle,
		SEODescription: &req.SEODescription,
	}
	if req.Status != "" {
		published := req.Status == statusPublished
		patch.Published = &published
		if published {
			current, err := s.deps.Store.GetArticle(c.Request.Context(), id)
			if err != nil {
				s.respondError(c, "admin update post", err)
				return
			}
			if current.PublishedAt == nil {
				at := s.deps.Now()
				patch.PublishedAt = &at
			}
		}
	}

	article, err := s.deps.Store.UpdateArticle(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, "admin update post", err)
		return
	}
	s.reindex(article)
	c.JSON(http.StatusOK, gin.H{"success": true, "post": article})
}

func (s *Server) adminDeletePost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.deps.Store.DeleteArticle(c.Request.Context(), id); err != nil {
		s.respondError(c, "admin delete post", err)
		return
	}
	if s.deps.Index != nil {
		if err := s.deps.Index.Remove(id); err != nil {
			s.logger.Warn("search index remove failed", "id", id, "error", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// reindex keeps the search index in step with an admin edit. The index
// drops unpublished articles on its own.
func (s *Server) reindex(article domain.Article) {
	if s.deps.Index == nil {
		return
	}
	if err := s.deps.Index.Index(article); err != nil {
		s.logger.Warn("search index update failed", "id", article.ID, "error", err)
	}
}

type leadQuery struct {
	Status   string `form:"status" binding:"omitempty,leadstatus"`
	Priority string `form:"priority" binding:"omitempty,leadpriority"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

func (s *Server) adminListLeads(c *gin.Context) {
	var q leadQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	leads, err := s.deps.Store.ListLeads(c.Request.Context(), domain.LeadFilter{
		Status:   domain.LeadStatus(q.Status),
		Priority: domain.LeadPriority(q.Priority),
		Limit:    q.Limit,
	})
	if err != nil {
		s.respondError(c, "admin list leads", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(leads))
}

type leadPatchRequest struct {
	Status       *string    `json:"status" binding:"omitempty,leadstatus"`
	Priority     *string    `json:"priority" binding:"omitempty,leadpriority"`
	Notes        *string    `json:"notes" binding:"omitempty,max=5000"`
	FollowUpDate *time.Time `json:"followUpDate"`
}

func (r leadPatchRequest) patch() domain.LeadPatch {
	var p domain.LeadPatch
	if r.Status != nil {
		status := domain.LeadStatus(*r.Status)
		p.Status = &status
	}
	if r.Priority != nil {
		priority := domain.LeadPriority(*r.Priority)
		p.Priority = &priority
	}
	p.Notes = r.Notes
	p.FollowUpDate = r.FollowUpDate
	return p
}

func (s *Server) adminUpdateLead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req leadPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	patch := req.patch()
	if err := patch.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lead, err := s.deps.Store.UpdateLead(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, "admin update lead", err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (s *Server) adminDeleteLead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.deps.Store.DeleteLead(c.Request.Context(), id); err != nil {
		s.respondError(c, "admin delete lead", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type generateRequest struct {
	Count *int `json:"count"`
}

// adminGeneratePosts creates drafts on demand. Fewer drafts than requested
// is a normal outcome and still answers 200.
func (s *Server) adminGeneratePosts(c *gin.Context) {
	if s.deps.Scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "generation is not configured"})
		return
	}
	var req generateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	count := 1
	if req.Count != nil {
		count = *req.Count
	}
	if count < 1 || count > maxGeneratePosts {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be between 1 and 10"})
		return
	}

	drafts, err := s.deps.Scheduler.GenerateNow(c.Request.Context(), count)
	if err != nil && len(drafts) == 0 {
		s.logger.Error("on-demand generation aborted", "requested", count, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate posts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"requested": count,
		"count":     len(drafts),
		"posts":     nonNil(drafts),
	})
}

func (s *Server) adminSchedulerStatus(c *gin.Context) {
	if s.deps.Scheduler == nil {
		c.JSON(http.StatusOK, gin.H{"timers": map[string]bool{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"timers": s.deps.Scheduler.Status()})
}

func (s *Server) adminRunDuty(c *gin.Context) {
	if s.deps.Scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler is not configured"})
		return
	}
	duty := c.Param("duty")
	err := s.deps.Scheduler.RunDuty(c.Request.Context(), duty)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "duty": duty})
	case errors.Is(err, usecase.ErrUnknownDuty):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrDutyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.logger.Error("manual duty run failed", "duty", duty, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
