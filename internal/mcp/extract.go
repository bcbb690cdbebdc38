package mcp

import "strings"

// markdownTrim is the punctuation stripped from candidate tokens. The
// resolve-library-id tool answers with a markdown bullet list, not
// structured data.
const markdownTrim = "`*_-.,;:!()[]<>\"'"

// extractLibraryID pulls a library identifier out of the free-text response
// of the resolve-library-id tool. Precedence: the first path-like token on a
// line that mentions the queried name (case-insensitive), else the first
// path-like token anywhere. Returns "" if the text contains none.
func extractLibraryID(text, name string) string {
	lowerName := strings.ToLower(name)

	first := ""
	for _, line := range strings.Split(text, "\n") {
		token := firstPathToken(line)
		if token == "" {
			continue
		}
		if first == "" {
			first = token
		}
		if strings.Contains(strings.ToLower(line), lowerName) {
			return token
		}
	}

	return first
}

// firstPathToken returns the first token on a line that looks like a library
// path: starts with "/" and is longer than two characters once surrounding
// markdown punctuation is stripped.
func firstPathToken(line string) string {
	for _, field := range strings.Fields(line) {
		token := strings.Trim(field, markdownTrim)
		if strings.HasPrefix(token, "/") && len(token) > 2 {
			return token
		}
	}
	return ""
}
