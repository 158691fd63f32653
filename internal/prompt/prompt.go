// Package prompt builds the pros/cons generation prompt shared by every LLM provider.
package prompt

import (
	"fmt"
	"strings"

	"decision-service/internal/models"
)

// SystemInstruction tells the model the exact output layout the parser expects.
const SystemInstruction = `You help people compare two options.
Answer with exactly four sections in this order and nothing else:
PROS_A: item | item | item
CONS_A: item | item
PROS_B: item | item | item
CONS_B: item | item
Separate items with " | ". Keep every item under ten words.`

// Build renders the user prompt for one comparison. An empty mindset is sent as mixed.
func Build(topic, optionA, optionB string, mindset models.Mindset) string {
	if mindset == "" {
		mindset = models.MindsetMixed
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", strings.TrimSpace(topic))
	fmt.Fprintf(&b, "Option A: %s\n", strings.TrimSpace(optionA))
	fmt.Fprintf(&b, "Option B: %s\n", strings.TrimSpace(optionB))
	fmt.Fprintf(&b, "Mindset: %s\n", mindset)
	b.WriteString("Provide PROS_A, CONS_A, PROS_B, CONS_B. Use ' | ' between items.")
	return b.String()
}

// StripCodeFence removes a surrounding markdown code block, if any.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.Contains(text[:nl], ":") {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
