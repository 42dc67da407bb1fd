package agentloop

import (
	"fmt"
	"strings"
)

// DefaultToolCharLimit bounds tool output appended to the transcript when
// no per-tool limit is configured.
const DefaultToolCharLimit = 30000

// Default character limits per built-in tool.
var DefaultToolCharLimits = map[string]int{
	"read_file":  50000,
	"write_file": 1000,
	"http_fetch": 30000,
	"web_search": 20000,
}

// Default line limits per built-in tool (applied after character
// truncation).
var DefaultToolLineLimits = map[string]int{
	"http_fetch": 400,
	"web_search": 200,
}

// TruncateOutput applies head/tail character truncation, keeping the start
// and end of the output and removing the middle.
func TruncateOutput(output string, maxChars int) string {
	if maxChars <= 0 || len(output) <= maxChars {
		return output
	}
	half := maxChars / 2
	removed := len(output) - maxChars
	return output[:half] +
		fmt.Sprintf("\n\n[Tool output truncated: %d characters removed from the middle. Re-run the tool with more targeted parameters to see specific parts.]\n\n", removed) +
		output[len(output)-half:]
}

// TruncateLines applies line-based truncation using a head/tail split.
func TruncateLines(output string, maxLines int) string {
	if maxLines <= 0 {
		return output
	}
	lines := strings.Split(output, "\n")
	if len(lines) <= maxLines {
		return output
	}
	headCount := maxLines / 2
	tailCount := maxLines - headCount
	omitted := len(lines) - headCount - tailCount
	return strings.Join(lines[:headCount], "\n") +
		fmt.Sprintf("\n[... %d lines omitted ...]\n", omitted) +
		strings.Join(lines[len(lines)-tailCount:], "\n")
}

// TruncateToolOutput applies the full truncation pipeline for a tool:
// character truncation first (handles pathological cases), then line
// truncation for readability.
func TruncateToolOutput(output, toolName string, charLimits, lineLimits map[string]int) string {
	maxChars, ok := charLimits[toolName]
	if !ok {
		maxChars, ok = DefaultToolCharLimits[toolName]
		if !ok {
			maxChars = DefaultToolCharLimit
		}
	}
	result := TruncateOutput(output, maxChars)

	maxLines := 0
	if lineLimits != nil {
		maxLines = lineLimits[toolName]
	}
	if maxLines == 0 {
		maxLines = DefaultToolLineLimits[toolName]
	}
	return TruncateLines(result, maxLines)
}
