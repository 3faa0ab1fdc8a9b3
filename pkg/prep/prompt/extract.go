package prompt

import (
	"fmt"
	"strings"
)

// SectionDirective instructs the model to wrap a named part of its
// answer in the delimiters ExtractSection looks for.
func SectionDirective(name string) string {
	return fmt.Sprintf(
		"Wrap the %s, and nothing else, between the lines <<<SECTION:%s>>> and <<<END:%s>>>.",
		name, name, name)
}

// ExtractSection recovers a delimited section from model output. When
// the delimiters are absent or malformed the whole text is returned:
// a non-conforming response degrades to plain text instead of failing.
func ExtractSection(text, name string) string {
	opening := fmt.Sprintf("<<<SECTION:%s>>>", name)
	closing := fmt.Sprintf("<<<END:%s>>>", name)

	start := strings.Index(text, opening)
	if start < 0 {
		return text
	}
	rest := text[start+len(opening):]
	end := strings.Index(rest, closing)
	if end < 0 {
		return text
	}
	return strings.TrimSpace(rest[:end])
}
