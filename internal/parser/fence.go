package parser

import (
	"fmt"
	"strings"
)

// MalformedBlockError reports a fenced region left unterminated before end of
// input. The document it belongs to fails; other documents are unaffected.
type MalformedBlockError struct {
	Line  int    // 1-based line of the opening fence
	Fence string // Opening fence marker, e.g. "```"
}

func (e *MalformedBlockError) Error() string {
	return fmt.Sprintf("unterminated fenced block opened at line %d with %q", e.Line, e.Fence)
}

// checkFences scans the body line by line and returns a MalformedBlockError
// when a fence opened with ``` or ~~~ is never closed.
//
// The scan mirrors CommonMark fence rules loosely: an opening fence is three
// or more backticks or tildes after at most three spaces of indentation, and
// a closing fence uses the same character with at least the opening length.
// CommonMark itself treats an unterminated fence as running to end of input;
// for a publishing corpus that is almost always an authoring mistake, so it
// is surfaced as a structural error instead.
func checkFences(body []byte) error {
	var (
		open     bool
		openChar byte
		openLen  int
		openLine int
	)

	lines := strings.Split(string(body), "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)
		if indent > 3 {
			continue
		}

		char, length := fenceMarker(trimmed)
		if length < 3 {
			continue
		}

		if !open {
			// A backtick fence cannot carry backticks in its info string, so a
			// line like "```code``` text" is a code span, not an opening fence.
			if char == '`' && strings.ContainsRune(trimmed[length:], '`') {
				continue
			}
			open = true
			openChar = char
			openLen = length
			openLine = i + 1
			continue
		}

		// Inside a fence: only a matching closing fence ends it. A closing
		// fence has no info string (nothing but the marker and spaces).
		if char == openChar && length >= openLen && strings.TrimRight(trimmed, string(char)+" ") == "" {
			open = false
		}
	}

	if open {
		return &MalformedBlockError{Line: openLine, Fence: strings.Repeat(string(openChar), openLen)}
	}
	return nil
}

// fenceMarker returns the fence character and run length at the start of a
// line, or length 0 when the line does not start with a fence character.
func fenceMarker(line string) (byte, int) {
	if line == "" {
		return 0, 0
	}
	char := line[0]
	if char != '`' && char != '~' {
		return 0, 0
	}
	length := 0
	for length < len(line) && line[length] == char {
		length++
	}
	return char, length
}
