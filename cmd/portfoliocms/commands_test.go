package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioCMS/internal/topics"
)

func runTopics(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"topics"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTopicsListsWholeCatalog(t *testing.T) {
	out, err := runTopics(t)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(topics.All()))
	for _, c := range topics.Categories {
		assert.Contains(t, out, string(c))
	}
}

func TestTopicsFiltersByCategory(t *testing.T) {
	out, err := runTopics(t, "--category", string(topics.TelegramBots))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(topics.TelegramBots.Topics()))
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, string(topics.TelegramBots)), line)
	}
}

func TestTopicsRejectsUnknownCategory(t *testing.T) {
	_, err := runTopics(t, "-c", "Kulinariya")
	assert.ErrorContains(t, err, `unknown category "Kulinariya"`)
}
