package llm

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultSystemPrompt = "Siz O'zbek tilida yozadigan tajribali texnik muallifsiz."

// newLimiter spaces calls evenly; a non-positive rate disables throttling.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}
