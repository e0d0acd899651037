package core

import "strings"

// NormalizeMerchant canonicalizes a raw merchant or description string into
// the key used by merchant rules and pattern matching: lowercase, trimmed,
// with every run of non-alphanumeric characters collapsed to a single space.
//
// The empty string maps to the empty key, which never matches any rule and
// falls through to the default category.
func NormalizeMerchant(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	pendingSpace := false
	for _, r := range raw {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
