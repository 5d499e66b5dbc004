package version

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionStrategy orders and compares versions the way a particular
// language ecosystem does. RuntimeSpec.Ecosystem selects the strategy
// used to sort DiscoverVersions output and to pick "latest"/"stable".
// Node, Go and Rust all publish semver-compatible tags so they share
// the default strategy; Python needs PEP 440 ordering, which treats
// pre-release segments differently than semver does.
type VersionStrategy interface {
	// Name identifies the strategy (matches RuntimeSpec.Ecosystem).
	Name() string
	// Less reports whether a sorts strictly before b under this
	// ecosystem's ordering (ascending order).
	Less(a, b string) bool
	// IsPrerelease reports whether version is a pre-release under
	// this ecosystem's conventions.
	IsPrerelease(version string) bool
}

// semverStrategy orders by Masterminds/semver/v3, after Normalize
// strips common prefixes (v1.2.3, release-1.2.3, ...). It backs the
// "node", "go", "rust" and "generic" ecosystems: all of them publish
// tags that are semver or semver-like.
type semverStrategy struct{ name string }

func (s semverStrategy) Name() string { return s.name }

func (s semverStrategy) Less(a, b string) bool {
	va, errA := semver.NewVersion(Normalize(a))
	vb, errB := semver.NewVersion(Normalize(b))
	if errA != nil || errB != nil {
		return a < b
	}
	return va.LessThan(vb)
}

func (s semverStrategy) IsPrerelease(v string) bool {
	return IsPrerelease(v)
}

// pep440Strategy orders Python release segments numerically,
// component by component, matching PEP 440's "release segment"
// comparison for the common case (no epochs, no post/dev/local
// segments) and falling back to string comparison when a component
// isn't numeric. No PEP 440 parser exists in the ecosystem libraries
// already wired for this module (see DESIGN.md), so this is a
// deliberately narrow, dependency-free comparator rather than a full
// PEP 440 implementation.
type pep440Strategy struct{}

func (pep440Strategy) Name() string { return "python" }

func (p pep440Strategy) IsPrerelease(v string) bool {
	lower := strings.ToLower(v)
	for _, marker := range []string{"a", "b", "rc", "dev", ".dev", "pre"} {
		if strings.Contains(lower, marker) {
			// avoid false positives on pure numeric segments like "3.10"
			if _, err := strconv.Atoi(strings.ReplaceAll(v, ".", "")); err != nil {
				return true
			}
		}
	}
	return false
}

func (p pep440Strategy) Less(a, b string) bool {
	releaseA, restA := splitRelease(a)
	releaseB, restB := splitRelease(b)

	segA := strings.Split(releaseA, ".")
	segB := strings.Split(releaseB, ".")
	for i := 0; i < len(segA) || i < len(segB); i++ {
		na, oka := segmentInt(segA, i)
		nb, okb := segmentInt(segB, i)
		if oka && okb {
			if na != nb {
				return na < nb
			}
			continue
		}
		// Missing trailing segment counts as zero (1.2 == 1.2.0).
		if na != nb {
			return na < nb
		}
	}

	// Equal release segments: a pre/dev suffix sorts before no suffix.
	if restA == restB {
		return false
	}
	if restA == "" {
		return false
	}
	if restB == "" {
		return true
	}
	return restA < restB
}

func splitRelease(v string) (release, rest string) {
	idx := strings.IndexAny(v, "abc-")
	if idx <= 0 {
		return v, ""
	}
	return v[:idx], v[idx:]
}

func segmentInt(segments []string, i int) (int, bool) {
	if i >= len(segments) {
		return 0, true
	}
	n, err := strconv.Atoi(segments[i])
	if err != nil {
		return 0, false
	}
	return n, true
}

var strategies = map[string]VersionStrategy{
	"node":    semverStrategy{name: "node"},
	"go":      semverStrategy{name: "go"},
	"rust":    semverStrategy{name: "rust"},
	"generic": semverStrategy{name: "generic"},
	"python":  pep440Strategy{},
}

// StrategyFor returns the VersionStrategy registered for ecosystem,
// defaulting to the semver-based "generic" strategy for an unknown or
// empty ecosystem name.
func StrategyFor(ecosystem string) VersionStrategy {
	if s, ok := strategies[ecosystem]; ok {
		return s
	}
	return strategies["generic"]
}

// SortDescendingByEcosystem sorts versions newest-first using the
// ordering rules of the named ecosystem.
func SortDescendingByEcosystem(versions []string, ecosystem string) []string {
	strat := StrategyFor(ecosystem)
	out := make([]string, len(versions))
	copy(out, versions)
	sort.SliceStable(out, func(i, j int) bool { return strat.Less(out[j], out[i]) })
	return out
}

// LatestByEcosystem returns the newest version in versions under the
// named ecosystem's ordering, optionally excluding pre-releases.
func LatestByEcosystem(versions []string, ecosystem string, stableOnly bool) (string, bool) {
	strat := StrategyFor(ecosystem)
	candidates := versions
	if stableOnly {
		candidates = nil
		for _, v := range versions {
			if !strat.IsPrerelease(v) {
				candidates = append(candidates, v)
			}
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sorted := SortDescendingByEcosystem(candidates, ecosystem)
	return sorted[0], true
}
