// Package security performs data hygiene on free-text market fields at
// creation time. It runs inside createMarket itself, which accepts
// caller-supplied name/description strings directly.
package security

import "github.com/microcosm-cc/bluemonday"

// Sanitizer strips all markup from market name/description text.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// MarketText strips markup from a market's name and description.
func (s *Sanitizer) MarketText(name, description string) (cleanName, cleanDescription string) {
	return s.policy.Sanitize(name), s.policy.Sanitize(description)
}
