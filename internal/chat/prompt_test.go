package chat

import (
	"strings"
	"testing"

	"github.com/lecternhq/lectern/internal/session"
)

func TestBuildSystemWithoutHistory(t *testing.T) {
	got := buildSystem(nil)
	if got != systemPrompt {
		t.Error("empty history must yield the bare system prompt")
	}
	if strings.Contains(got, "Previous conversation") {
		t.Error("history header present without history")
	}
}

func TestBuildSystemWithHistory(t *testing.T) {
	history := []session.Exchange{
		{UserText: "What is lesson 1 about?", AssistantText: "It introduces assertions."},
		{UserText: "And lesson 2?", AssistantText: "Fixtures."},
	}

	got := buildSystem(history)
	if !strings.HasPrefix(got, systemPrompt) {
		t.Error("system prompt must lead the composed content")
	}
	for _, want := range []string{
		"Previous conversation:",
		"User: What is lesson 1 about?",
		"Assistant: It introduces assertions.",
		"User: And lesson 2?",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("composed system missing %q", want)
		}
	}

	// Order preserved, oldest first.
	if strings.Index(got, "lesson 1") > strings.Index(got, "lesson 2") {
		t.Error("history rendered out of order")
	}
}
