package pattern

import (
	"regexp"
	"strings"
)

// Placeholder replaces variable path segments in a pattern key.
const Placeholder = "{var}"

var (
	numericSegment = regexp.MustCompile(`^[0-9]+$`)
	uuidSegment    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	hexSegment     = regexp.MustCompile(`^[0-9a-fA-F]{8,}$`)
	opaqueSegment  = regexp.MustCompile(`^[A-Za-z0-9]{20,}$`)
)

// IsVariable reports whether a path segment looks like an identifier rather
// than a structural slug.
func IsVariable(segment string) bool {
	switch {
	case numericSegment.MatchString(segment):
		return true
	case uuidSegment.MatchString(segment):
		return true
	case hexSegment.MatchString(segment) && hasDigit(segment):
		return true
	case opaqueSegment.MatchString(segment) && hasDigit(segment) && hasLetter(segment):
		return true
	default:
		return false
	}
}

// Template returns the segments with variable ones replaced by Placeholder.
func Template(segs []string) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		if IsVariable(s) {
			out[i] = Placeholder
			continue
		}
		out[i] = s
	}
	return out
}

// Key builds the pattern key for a normalized host and its path segments.
func Key(host string, segs []string) string {
	return host + "/" + strings.Join(Template(segs), "/")
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) >= 0
}
