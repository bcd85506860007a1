package services

import (
	"fmt"
	"strings"
)

const fallbackSlug = "post"

func generateSlug(title string) string {
	var b strings.Builder
	dash := false

	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case r == '\'' || r == '"':
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 200 {
		slug = strings.TrimSuffix(slug[:200], "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// suffixedSlug returns the n-th alternative for a taken slug: base-2, base-3, ...
func suffixedSlug(base string, n int) string {
	return fmt.Sprintf("%s-%d", base, n+1)
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
