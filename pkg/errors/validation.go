package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// maxNodeIDLength bounds node identifiers; they end up in HTML attributes and cache keys.
const maxNodeIDLength = 128

// ValidateNodeID checks that a node identifier is usable as a stable join key.
//
// Rules:
//   - not empty, at most 128 characters
//   - no whitespace or control characters
//   - no quotes or angle brackets
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidDescriptor, "node id cannot be empty")
	}
	if len(id) > maxNodeIDLength {
		return New(ErrCodeInvalidDescriptor, "node id too long (max %d characters)", maxNodeIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidDescriptor, "node id %q contains whitespace or control characters", id)
		}
	}
	if strings.ContainsAny(id, `"'<>`) {
		return New(ErrCodeInvalidDescriptor, "node id %q contains invalid characters", id)
	}
	return nil
}

// ValidateTargetURL checks that a node's target is an absolute http(s) URL
// or an in-page fragment. Empty targets are allowed (the box is not a link).
func ValidateTargetURL(raw string) error {
	if raw == "" || strings.HasPrefix(raw, "#") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidDescriptor, err, "invalid target url %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidDescriptor, "target url %q must use http or https", raw)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidDescriptor, "target url %q has no host", raw)
	}
	return nil
}

var colorRe = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-z]+)$`)

// ValidateColor accepts #rgb, #rrggbb and lowercase named colors.
// Empty means "use the default".
func ValidateColor(c string) error {
	if c == "" || colorRe.MatchString(c) {
		return nil
	}
	return New(ErrCodeInvalidDescriptor, "invalid color %q", c)
}
