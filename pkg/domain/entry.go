package domain

import "time"

// Entry represents a single candidate item flowing through the pipeline.
// Fields carries the named entry fields used for link preference lookup,
// e.g. imdb_url or input_url.
type Entry struct {
	Title       string
	URL         string
	Description string
	Published   time.Time
	Fields      map[string]string
	Manifest    *Manifest
}

// Field returns a named field of the entry. The raw url of the entry is
// always available under the "url" name unless overridden.
func (e *Entry) Field(name string) (string, bool) {
	if v, ok := e.Fields[name]; ok && v != "" {
		return v, true
	}
	if name == "url" && e.URL != "" {
		return e.URL, true
	}
	return "", false
}

// Key returns a stable identity for the entry within a batch, used to
// remember sticky rejections across re-evaluation passes.
func (e *Entry) Key() string {
	if e.URL != "" {
		return e.URL
	}
	return e.Title
}

// Manifest is the list of file paths carried by an entry's content.
// A nil *Manifest means no manifest could be obtained for the entry,
// which is distinct from a manifest with no files.
type Manifest struct {
	Files []string
}

// Decision is the outcome of filtering a single entry
type Decision struct {
	Accepted bool
	Reason   string
}

// Accept returns an accepting decision
func Accept() Decision { return Decision{Accepted: true} }

// Reject returns a rejecting decision with a human-readable reason
func Reject(reason string) Decision { return Decision{Reason: reason} }
