package pattern

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/JakeFAU/page-archiver/internal/archive"
)

const (
	// DefaultPrefix is the archive directory used when none is configured.
	DefaultPrefix = "sites"
	// DefaultMaxSlugLength bounds the file name derived from a URL path.
	DefaultMaxSlugLength = 120

	rootSlug = "index"
)

var (
	invalidSlugChars = regexp.MustCompile(`[^a-z0-9._]+`)
	invalidHostChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
	htmlExtension    = regexp.MustCompile(`(?i)\.html?$`)

	// digest lengths tried in order when disambiguating a path.
	suffixLengths = []int{8, 16, 64}
)

// Config controls archive path derivation.
type Config struct {
	Prefix        string
	MaxSlugLength int
}

// Matcher implements archive.Matcher.
type Matcher struct {
	prefix  string
	maxSlug int
	hasher  archive.Hasher
}

// New creates a Matcher. Zero config values fall back to defaults.
func New(cfg Config, hasher archive.Hasher) *Matcher {
	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	maxSlug := cfg.MaxSlugLength
	if maxSlug <= 0 {
		maxSlug = DefaultMaxSlugLength
	}
	return &Matcher{
		prefix:  prefix,
		maxSlug: maxSlug,
		hasher:  hasher,
	}
}

// KeyFor returns the pattern key for rawURL.
func KeyFor(rawURL string) (string, error) {
	u, err := Parse(rawURL)
	if err != nil {
		return "", err
	}
	return Key(u.Host, segments(u)), nil
}

// Match classifies rawURL. Known keys reuse their stored archive path; unknown
// keys get a fresh path derived from the host and the original path. The
// registry is never modified.
func (m *Matcher) Match(rawURL string, registry archive.Registry) (archive.Decision, error) {
	u, err := Parse(rawURL)
	if err != nil {
		return archive.Decision{}, err
	}
	segs := segments(u)
	key := Key(u.Host, segs)

	if existing, ok := registry.Lookup(key); ok {
		return archive.Decision{Key: key, ArchivePath: existing.ArchivePath}, nil
	}

	archivePath, err := m.derivePath(Redact(rawURL), key, u.Host, segs, registry)
	if err != nil {
		return archive.Decision{}, err
	}
	return archive.Decision{Key: key, ArchivePath: archivePath, IsNew: true}, nil
}

func (m *Matcher) derivePath(
	rawURL string,
	key string,
	host string,
	segs []string,
	registry archive.Registry,
) (string, error) {
	hostDir := invalidHostChars.ReplaceAllString(host, "_")
	slug, truncated := m.slug(segs)

	candidate := path.Join(m.prefix, hostDir, slug+".html")
	owner, taken := registry.PathOwner(candidate)
	if slug != "" && !truncated && (!taken || owner == key) {
		return candidate, nil
	}

	digest, err := m.hasher.Hash([]byte(rawURL))
	if err != nil {
		return "", fmt.Errorf("hash url: %w", err)
	}
	for _, n := range suffixLengths {
		if n > len(digest) {
			n = len(digest)
		}
		name := digest[:n]
		if slug != "" {
			name = slug + "-" + name
		}
		candidate = path.Join(m.prefix, hostDir, name+".html")
		if owner, taken := registry.PathOwner(candidate); !taken || owner == key {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free archive path for %s", rawURL)
}

// slug joins the sanitized path segments with dashes. The root path maps to
// "index". The second result reports whether the slug was cut to the
// configured length.
func (m *Matcher) slug(segs []string) (string, bool) {
	if len(segs) == 0 {
		return rootSlug, false
	}
	parts := make([]string, 0, len(segs))
	for i, s := range segs {
		if i == len(segs)-1 {
			s = htmlExtension.ReplaceAllString(s, "")
		}
		s = invalidSlugChars.ReplaceAllString(strings.ToLower(s), "-")
		s = strings.Trim(s, "-.")
		if s != "" {
			parts = append(parts, s)
		}
	}
	slug := strings.Join(parts, "-")
	if len(slug) <= m.maxSlug {
		return slug, false
	}
	return strings.TrimRight(slug[:m.maxSlug], "-."), true
}

var _ archive.Matcher = (*Matcher)(nil)
