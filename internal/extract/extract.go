// Package extract pulls source code out of free-form model output.
package extract

import (
	"regexp"
	"strings"
)

// fencePattern matches a complete triple-backtick block. An info string
// (language tag) is only recognised when it ends the opening line.
var fencePattern = regexp.MustCompile("(?s)```(?:[^\n`]*\n)?(.*?)```")

// ExtractCode returns the body of the first fenced code block in text and
// whether one was found. Later blocks are ignored, never merged.
func ExtractCode(text string) (string, bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	m := fencePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return strings.TrimSuffix(m[1], "\n"), true
}

// CodeOrRaw returns the first fenced block when present, otherwise the
// trimmed input. Used for collaborator fields that are meant to hold code
// but sometimes arrive wrapped in a fence.
func CodeOrRaw(text string) string {
	if code, ok := ExtractCode(text); ok {
		return code
	}
	return strings.TrimSpace(text)
}
