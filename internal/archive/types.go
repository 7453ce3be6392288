package archive

import (
	"sort"
	"time"
)

// URLPattern is the registry entry for one URL shape.
type URLPattern struct {
	Key         string    `json:"-"`
	ArchivePath string    `json:"archive_path"`
	FirstSeen   time.Time `json:"first_seen"`
	HitCount    int       `json:"hit_count"`
	LastURL     string    `json:"last_url,omitempty"`
	LastSeen    time.Time `json:"last_seen,omitzero"`
}

// Registry maps pattern keys to their archive metadata.
//
// Registry values are treated as immutable by the matcher; Apply returns a
// modified copy instead of changing the receiver.
type Registry map[string]URLPattern

// NewRegistry returns an empty registry.
func NewRegistry() Registry {
	return Registry{}
}

// Lookup returns the entry stored for key.
func (r Registry) Lookup(key string) (URLPattern, bool) {
	p, ok := r[key]
	if ok {
		p.Key = key
	}
	return p, ok
}

// PathOwner reports which key, if any, already archives to path.
func (r Registry) PathOwner(path string) (string, bool) {
	for key, p := range r {
		if p.ArchivePath == path {
			return key, true
		}
	}
	return "", false
}

// Keys returns the registry keys in sorted order.
func (r Registry) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the registry.
func (r Registry) Clone() Registry {
	out := make(Registry, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Apply records a match decision and returns the updated registry. New keys
// start with a hit count of one; known keys keep their path and first-seen
// time and have their hit count incremented.
func (r Registry) Apply(d Decision, sourceURL string, now time.Time) Registry {
	out := r.Clone()
	entry, ok := out[d.Key]
	if !ok {
		entry = URLPattern{
			ArchivePath: d.ArchivePath,
			FirstSeen:   now,
		}
	}
	entry.HitCount++
	entry.LastURL = sourceURL
	entry.LastSeen = now
	out[d.Key] = entry
	return out
}

// Decision is the outcome of matching a URL against the registry.
type Decision struct {
	Key         string
	ArchivePath string
	IsNew       bool
}

// Page is the rendered result of a browser fetch.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	HTML       []byte
	Duration   time.Duration
}

// ArchivedPage is the artifact written to the archive.
type ArchivedPage struct {
	SourceURL string
	Content   []byte
	Path      string
}

// ChangeSet lists the repository-relative paths modified by a run.
type ChangeSet []string

// Add appends path unless it is already present.
func (c ChangeSet) Add(path string) ChangeSet {
	for _, p := range c {
		if p == path {
			return c
		}
	}
	return append(c, path)
}

// Empty reports whether nothing changed.
func (c ChangeSet) Empty() bool {
	return len(c) == 0
}
