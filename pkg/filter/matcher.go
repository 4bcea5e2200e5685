package filter

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// MatchAny returns the first mask, in mask list order, that at least one
// file matches. Masks use shell glob semantics (*, ?, [...]). Masks without
// a separator match anywhere in the path, wildcards crossing directory
// boundaries, masks with a separator match the full relative path.
func MatchAny(files, masks []string) (string, bool) {
	for _, mask := range masks {
		for _, file := range files {
			if matchMask(file, mask) {
				return mask, true
			}
		}
	}
	return "", false
}

// MatchCount returns the number of (file, mask) pairs that match, counted
// with multiplicity: a file matching two masks contributes two.
func MatchCount(files, masks []string) int {
	count := 0
	for _, mask := range masks {
		for _, file := range files {
			if matchMask(file, mask) {
				count++
			}
		}
	}
	return count
}

// ValidateMasks checks every mask for glob syntax errors. Malformed masks
// are configuration errors and must be surfaced before filtering begins.
func ValidateMasks(masks []string) error {
	for _, mask := range masks {
		if _, err := path.Match(mask, "probe"); err != nil {
			return fmt.Errorf("invalid mask %q: %w", mask, err)
		}
	}
	return nil
}

// matchMask tests a single file path against a single glob mask. Manifest
// paths use forward slashes regardless of platform.
func matchMask(file, mask string) bool {
	file = filepath.ToSlash(file)
	if ok, err := path.Match(mask, file); err == nil && ok {
		return true
	}
	// masks like *.mkv or *sample* are meant to match anywhere in the path,
	// wildcards crossing directory boundaries. path.Match stops * and ? at a
	// separator, so remap separators to a byte the mask cannot contain and
	// the wildcards treat as an ordinary character.
	if !strings.Contains(mask, "/") && strings.Contains(file, "/") {
		flat := strings.ReplaceAll(file, "/", "\x00")
		if ok, err := path.Match(mask, flat); err == nil && ok {
			return true
		}
	}
	return false
}
