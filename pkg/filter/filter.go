package filter

import (
	"fmt"

	"github.com/feedmill/feedmill/pkg/domain"
)

// Rule is a normalized set of filename constraints for one task. The mask
// lists arrive here already normalized by the config layer, a single-string
// shorthand never reaches the filter. Any list may be empty, empty means no
// constraint of that kind.
type Rule struct {
	Require    []string
	RequireAll []string
	Reject     []string
	Strict     bool
}

// Empty reports whether the rule constrains anything at all.
func (r Rule) Empty() bool {
	return len(r.Require) == 0 && len(r.RequireAll) == 0 && len(r.Reject) == 0 && !r.Strict
}

// Validate checks all mask lists for glob syntax errors.
func (r Rule) Validate() error {
	for _, masks := range [][]string{r.Require, r.RequireAll, r.Reject} {
		if err := ValidateMasks(masks); err != nil {
			return err
		}
	}
	return nil
}

// Decide evaluates an entry's manifest against the rule. It is a pure
// function of its inputs: re-deciding the same manifest against the same
// rule always yields the same decision. Remembering rejections across
// pipeline passes is the orchestrator's job, not the filter's.
func Decide(manifest *domain.Manifest, rule Rule) domain.Decision {
	if manifest == nil {
		if rule.Strict {
			return domain.Reject("no content manifest available")
		}
		// without a manifest the filter abstains, the rest of the pipeline decides
		return domain.Accept()
	}

	files := manifest.Files

	if len(rule.Require) > 0 {
		if _, ok := MatchAny(files, rule.Require); !ok {
			return domain.Reject("missing required filetype")
		}
	}

	if len(rule.RequireAll) > 0 {
		// each mask must be satisfied by at least one file on its own
		for _, mask := range rule.RequireAll {
			if _, ok := MatchAny(files, []string{mask}); !ok {
				return domain.Reject("missing required filetype (all)")
			}
		}
	}

	if len(rule.Reject) > 0 {
		if mask, ok := MatchAny(files, rule.Reject); ok {
			return domain.Reject(fmt.Sprintf("contains banned file %q", mask))
		}
	}

	return domain.Accept()
}
