// Package render assembles the final outbound email body and scans for
// unresolved template placeholders.
package render

import (
	"fmt"
	"regexp"
	"strings"
)

// ComplianceFooter is appended to every rendered body.
const ComplianceFooter = "If I reached the wrong person, reply 'no' and I won't follow up."

// Matches bracketed tokens like [first_name] and double-brace tokens
// like {{company}}; either indicates an unfilled template variable.
var placeholderRe = regexp.MustCompile(`\[[^\]]+\]|\{\{[^}]+\}\}`)

// Signature is the required sign-off block on every outbound message.
type Signature struct {
	Name     string
	Title    string
	Org      string
	Website  string
	Location string
}

// Render returns the signature block as plain text.
func (s Signature) Render() string {
	lines := []string{s.Name, s.Title, s.Org}
	if s.Website != "" {
		lines = append(lines, s.Website)
	}
	if s.Location != "" {
		lines = append(lines, s.Location)
	}
	return strings.Join(lines, "\n")
}

// Complete reports whether the required signature fields are populated.
func (s Signature) Complete() bool {
	return s.Name != "" && s.Title != "" && s.Org != ""
}

// Body renders the full outbound body: draft text, signature block and
// the fixed compliance footer.
func Body(bodyText string, signature Signature) string {
	return fmt.Sprintf("%s\n\n%s\n\n%s", bodyText, signature.Render(), ComplianceFooter)
}

// HasUnresolvedPlaceholders reports whether text still contains template
// placeholder syntax.
func HasUnresolvedPlaceholders(text string) bool {
	return placeholderRe.MatchString(text)
}

// WordCount counts whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
