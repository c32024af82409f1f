package ingest

import (
	"strings"

	"github.com/joseph-ayodele/refcue/constants"
)

const (
	acceptedMarker = "accepted your invitation"
	worksAtMarker  = "works at "
)

// ParsedConnection is what a notification subject and snippet reveal.
type ParsedConnection struct {
	Name         string
	CompanyGuess *string
}

// Parse extracts the inviter's name from the subject and a company guess
// from the snippet. Name falls back to constants.UnknownName.
func Parse(subject, snippet string) ParsedConnection {
	out := ParsedConnection{Name: constants.UnknownName}

	if i := strings.Index(asciiLower(subject), acceptedMarker); i >= 0 {
		if name := strings.TrimSpace(subject[:i]); name != "" {
			out.Name = name
		}
	}

	if i := strings.Index(asciiLower(snippet), worksAtMarker); i >= 0 {
		rest := snippet[i+len(worksAtMarker):]
		if dot := strings.IndexByte(rest, '.'); dot >= 0 {
			rest = rest[:dot]
		}
		company := strings.TrimSpace(rest)
		out.CompanyGuess = &company
	}
	return out
}

// asciiLower folds A-Z only, so byte offsets match the input.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
