package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	chatTimeout    = 30 * time.Second
	maxChatHistory = 20
	chatPhone      = "+998 91 123 45 67"

	chatSystemPrompt = "Siz sayt tashrifchilariga xizmatlar bo'yicha maslahat beradigan do'stona yordamchisiz. Qisqa va aniq javob bering."
)

var fallbackServices = []string{
	"Web saytlar yaratish (React, Node.js, TypeScript)",
	"Telegram botlar yaratish",
	"AI chatbotlar va avtomatlashtirish",
	"E-commerce yechimlari",
	"Business process avtomatlashtirish",
}

type chatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required,max=5000"`
}

type chatRequest struct {
	Message string        `json:"message" binding:"required,max=2000"`
	History []chatMessage `json:"history" binding:"max=20,dive"`
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	answer, err := s.answer(c.Request.Context(), req)
	if err != nil {
		s.logger.Warn("chat generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":    "Chatbot xizmatida muammo yuz berdi",
			"fallback": s.chatFallback(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"response":  answer,
		"timestamp": s.deps.Now().UTC(),
	})
}

func (s *Server) answer(ctx context.Context, req chatRequest) (string, error) {
	if s.assistant == nil {
		return "", errors.New("no text generator configured")
	}
	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	text, err := s.assistant.Generate(ctx, s.chatPrompt(ctx, req))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "Kechirasiz, javob berishda muammo yuz berdi.", nil
	}
	return text, nil
}

// chatPrompt renders the assistant persona, the recent history and the new
// question as a single completion prompt.
func (s *Server) chatPrompt(ctx context.Context, req chatRequest) string {
	services := fallbackServices
	if active, err := s.deps.Store.ListServices(ctx, true); err == nil && len(active) > 0 {
		services = make([]string, 0, len(active))
		for _, svc := range active {
			services = append(services, svc.Title+" ("+svc.Description+")")
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sen %s'ning professional web developer va AI consultant sifatida ishlaydigan virtual yordamchisisan. ", s.author)
	fmt.Fprintf(&b, "%s Toshkent, O'zbekistonda yashaydigan tajribali web developer bo'lib, quyidagi xizmatlar bilan shug'ullanadi:\n\n", s.author)
	for i, svc := range services {
		fmt.Fprintf(&b, "%d. %s\n", i+1, svc)
	}
	fmt.Fprintf(&b, "\nSening vazifang:\n- Mijozlarni %s bilan bog'lash\n- Uning xizmatlari haqida ma'lumot berish\n", s.author)
	b.WriteString("- Texnik savollarga yordam berish\n- Loyiha takliflarini qabul qilish\n- Do'stona va professional munosabat\n\n")
	b.WriteString("Har doim o'zbek tilida javob ber.\n\nOldingi suhbat:\n")

	history := req.History
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	for _, msg := range history {
		speaker := "Yordamchi"
		if msg.Role == "user" {
			speaker = "Foydalanuvchi"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, msg.Content)
	}
	fmt.Fprintf(&b, "\nFoydalanuvchi: %s\n\nYordamchi:", req.Message)
	return b.String()
}

func (s *Server) chatFallback() string {
	return fmt.Sprintf("Salom! Men %s'ning virtual yordamchisiman. Afsuski, hozir texnik muammo tufayli to'liq javob bera olmayapman. Iltimos, to'g'ridan-to'g'ri bog'laning: %s", s.author, chatPhone)
}
