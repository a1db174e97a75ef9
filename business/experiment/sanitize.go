package experiment

import "strings"

const (
	maxKeyLen     = 64
	maxVariantLen = 32
)

// SanitizeKey lower-cases s and keeps only [a-z0-9_-], truncated to 64
// characters. Noisy client input is cleaned rather than rejected.
func SanitizeKey(s string) string {
	return clean(strings.ToLower(strings.TrimSpace(s)), maxKeyLen, false)
}

// SanitizeVariant keeps [A-Za-z0-9_-], truncated to 32 characters.
func SanitizeVariant(s string) string {
	return clean(strings.TrimSpace(s), maxVariantLen, true)
}

func clean(s string, limit int, allowUpper bool) string {
	var b strings.Builder
	b.Grow(min(len(s), limit))
	for _, r := range s {
		if b.Len() >= limit {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case allowUpper && r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeVariants sanitizes and de-duplicates variants, keeping order.
func normalizeVariants(variants []string) []string {
	seen := make(map[string]struct{}, len(variants))
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		v = SanitizeVariant(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func containsVariant(variants []string, v string) bool {
	for _, x := range variants {
		if x == v {
			return true
		}
	}
	return false
}
