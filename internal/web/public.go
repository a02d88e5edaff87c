package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"PortfolioCMS/internal/domain"
)

const defaultPageSize = 20

func (s *Server) listServices(c *gin.Context) {
	services, err := s.deps.Store.ListServices(c.Request.Context(), true)
	if err != nil {
		s.respondError(c, "list services", err)
		return
	}
	c.JSON(http.StatusOK, services)
}

type pageQuery struct {
	Category string `form:"category" binding:"max=100"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}

func (s *Server) listPosts(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultPageSize
	}

	published := true
	posts, err := s.deps.Store.ListArticles(c.Request.Context(), domain.ArticleFilter{
		Published: &published,
		Category:  q.Category,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		s.respondError(c, "list posts", err)
		return
	}
	c.JSON(http.StatusOK, nonNil(posts))
}

type searchQuery struct {
	Q     string `form:"q" binding:"required,max=200"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

func (s *Server) searchPosts(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if s.deps.Index == nil {
		c.JSON(http.StatusOK, []domain.Article{})
		return
	}
	if q.Limit == 0 {
		q.Limit = 10
	}

	ids, err := s.deps.Index.Search(q.Q, q.Limit)
	if err != nil {
		s.respondError(c, "search posts", err)
		return
	}
	ctx := c.Request.Context()
	results := make([]domain.Article, 0, len(ids))
	for _, id := range ids {
		article, err := s.deps.Store.GetArticle(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			s.respondError(c, "search posts", err)
			return
		}
		if article.Published {
			results = append(results, article)
		}
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) publishedBySlug(ctx context.Context, slug string) (domain.Article, error) {
	article, err := s.deps.Store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return domain.Article{}, err
	}
	if !article.Published {
		return domain.Article{}, domain.ErrNotFound
	}
	return article, nil
}

func (s *Server) getPost(c *gin.Context) {
	ctx := c.Request.Context()
	article, err := s.publishedBySlug(ctx, c.Param("slug"))
	if err != nil {
		s.respondError(c, "get post", err)
		return
	}
	if err := s.deps.Store.IncrementViews(ctx, article.ID); err != nil {
		s.logger.Warn("view counter not updated", "slug", article.Slug, "error", err)
	} else {
		article.Views++
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) likePost(c *gin.Context) {
	ctx := c.Request.Context()
	article, err := s.publishedBySlug(ctx, c.Param("slug"))
	if err != nil {
		s.respondError(c, "like post", err)
		return
	}
	likes, err := s.deps.Store.IncrementLikes(ctx, article.ID)
	if err != nil {
		s.respondError(c, "like post", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "likes": likes})
}

type contactRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	Email        string `json:"email" binding:"required,email,max=200"`
	Message      string `json:"message" binding:"required,max=5000"`
	Phone        string `json:"phone" binding:"max=50"`
	BusinessType string `json:"businessType" binding:"max=200"`
	ServiceType  string `json:"serviceType" binding:"max=200"`
	Budget       string `json:"budget" binding:"max=100"`
	Timeline     string `json:"timeline" binding:"max=100"`
}

// contact stores the lead first; email and Telegram delivery are best
// effort and never fail the request.
func (s *Server) contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	lead, err := s.deps.Store.CreateLead(ctx, domain.NewLead{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		BusinessType: req.BusinessType,
		ServiceType:  req.ServiceType,
		Budget:       req.Budget,
		Timeline:     req.Timeline,
		Message:      req.Message,
		Source:       domain.SourceContactForm,
	})
	if err != nil {
		s.respondError(c, "create lead", err)
		return
	}

	notifyCtx := context.WithoutCancel(ctx)
	if s.deps.Mailer != nil {
		if err := s.deps.Mailer.SendContactConfirmation(notifyCtx, lead); err != nil {
			s.logger.Warn("confirmation email failed", "lead_id", lead.ID, "error", err)
		}
		if err := s.deps.Mailer.SendAdminNotification(notifyCtx, lead); err != nil {
			s.logger.Warn("admin email failed", "lead_id", lead.ID, "error", err)
		}
	}
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.NotifyLead(notifyCtx, lead); err != nil {
			s.logger.Warn("telegram lead notification failed", "lead_id", lead.ID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "leadId": lead.ID})
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	if !s.tokens.enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin login is not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	token, expires, ok := s.tokens.login(req.Password)
	if !ok {
		s.logger.Warn("admin login rejected", "ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "expiresAt": expires.UTC()})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
