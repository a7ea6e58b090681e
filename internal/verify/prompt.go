package verify

import (
	"fmt"
	"strings"
)

// SnippetWords is how much section content the verifier sees.
const SnippetWords = 250

// BuildCompliancePrompt asks whether a section conflicts with the task.
func BuildCompliancePrompt(task, title, content string) string {
	words := strings.Fields(content)
	if len(words) > SnippetWords {
		words = words[:SnippetWords]
	}
	return fmt.Sprintf("Analyze if the following text section conflicts with or violates the user's primary goal. "+
		"User Goal: '%s'. Text Section: '%s. %s'. "+
		"Does the text section violate the user's goal? Answer only with 'Yes' or 'No'.",
		task, title, strings.Join(words, " "))
}

// IsVeto reports whether a verifier answer flags a conflict: its first
// token, lower-cased, contains "yes".
func IsVeto(answer string) bool {
	fields := strings.Fields(strings.ToLower(answer))
	if len(fields) == 0 {
		return false
	}
	return strings.Contains(fields[0], "yes")
}
