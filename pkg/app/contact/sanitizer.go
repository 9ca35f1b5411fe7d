package contact

import (
	"html"
	"strings"

	"github.com/NeuralTrust/FormGate/pkg/domain/contact"
	"github.com/microcosm-cc/bluemonday"
)

type sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a Sanitizer that reduces free text to plain text.
func NewSanitizer() contact.Sanitizer {
	return &sanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize strips every tag and attribute. The pass is repeated until the
// output is stable, so entity-encoded markup cannot survive a second call.
func (s *sanitizer) Sanitize(text string) string {
	out := strings.ReplaceAll(text, "\x00", "")
	for i := 0; i <= len(text); i++ {
		next := s.pass(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func (s *sanitizer) pass(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}
