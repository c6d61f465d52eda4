package engine

import (
	"fmt"
	"strings"

	"github.com/amberseal/amberseal/internal/schema"
)

// emptySummaryPlaceholder stands in for the running summary before the first
// summarization pass has produced one.
const emptySummaryPlaceholder = "No previous interactions"

// BuildContext composes the system preamble (persona + running summary) with
// the policy-selected message window into the context for one model call.
//
// The system entry is always first. Persona fields are rendered as-is, empty
// strings included; there are no failure modes. Inputs are never mutated.
func BuildContext(
	persona schema.PersonaConfig,
	summary schema.RunningSummary,
	windowed []schema.Message,
	interactions int,
) []schema.ContextEntry {
	summaryText := summary.Text
	if summaryText == "" {
		summaryText = emptySummaryPlaceholder
	}

	preamble := fmt.Sprintf(
		"You are an agent with the following traits: %s\n\n"+
			"## Backstory\n%s\n\n"+
			"## Instructions\n%s\n\n"+
			"Interactions so far: %d\n\n"+
			"## Conversation Summary\n%s",
		strings.Join(persona.Traits, ", "),
		persona.Backstory,
		persona.Instructions,
		interactions,
		summaryText,
	)

	entries := make([]schema.ContextEntry, 0, len(windowed)+1)
	entries = append(entries, schema.ContextEntry{Role: schema.RoleSystem, Content: preamble})
	for _, m := range windowed {
		entries = append(entries, schema.ContextEntry{Role: m.Role, Content: m.Content})
	}
	return entries
}

// transcript renders messages into the "{role}: {content}" lines handed to
// the summarize call.
func transcript(msgs []schema.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}
