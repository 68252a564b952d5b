package provider

import (
	"context"
	"strings"

	"github.com/fazal2204/superset-chatbot/internal/transcript"
)

const mockDeclineReply = "I can only answer Superset/IPP related questions."

// Mock answers deterministically from the session's system document. Used by
// tests and when PROVIDER=mock, so the full request path works without a
// hosted API.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Complete(ctx context.Context, req Request) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	system, rest := splitPrompt(req.Turns)

	question := ""
	for i := len(rest) - 1; i >= 0; i-- {
		if rest[i].Role == transcript.RoleUser {
			question = rest[i].Content
			break
		}
	}

	return Result{
		Text:  answerFromDocument(system, question),
		Model: "mock",
	}, nil
}

// answerFromDocument picks the document line sharing the most words with the
// question, mimicking a grounded model. Questions with no overlap get the
// decline reply the system rules demand.
func answerFromDocument(system, question string) string {
	if strings.TrimSpace(question) == "" {
		return mockDeclineReply
	}

	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = strings.Trim(w, "?.,!:;\"'")
		if len(w) > 3 {
			words[w] = true
		}
	}

	bestLine := ""
	bestScore := 0
	for _, line := range strings.Split(system, "\n") {
		trimmed := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-• "))
		if trimmed == "" {
			continue
		}
		score := 0
		for _, w := range strings.Fields(strings.ToLower(trimmed)) {
			w = strings.Trim(w, "?.,!:;\"'")
			if words[w] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestLine = trimmed
		}
	}

	if bestScore == 0 {
		return mockDeclineReply
	}
	return bestLine
}
