package services

import (
	"regexp"
	"strings"

	"github.com/courtside-dev/scoreboard-system/models"
)

// CategoryCandidate is one resolvable category: a bracket, a league config,
// or an entry from the event's category configuration.
type CategoryCandidate struct {
	ID    string
	Label string
}

var (
	genderQualifierRe = regexp.MustCompile(`\s*\((?i:Male|Female|Mixed)\)\s*$`)
	dashSpacingRe     = regexp.MustCompile(`\s*-\s*`)
)

// NormalizeCategoryLabel strips a trailing "(Male|Female|Mixed)" qualifier,
// collapses dash spacing and lowercases, so "Open -  Singles (Male)" and
// "open - singles" compare equal.
func NormalizeCategoryLabel(label string) string {
	label = genderQualifierRe.ReplaceAllString(label, "")
	label = dashSpacingRe.ReplaceAllString(label, " - ")
	label = strings.Join(strings.Fields(label), " ")
	return strings.ToLower(strings.TrimSpace(label))
}

// BaseCategoryName returns the part of a normalized label before the first
// " - " separator.
func BaseCategoryName(label string) string {
	normalized := NormalizeCategoryLabel(label)
	if idx := strings.Index(normalized, " - "); idx >= 0 {
		return strings.TrimSpace(normalized[:idx])
	}
	return normalized
}

// ResolveCategory walks the matching-strategy ladder from strongest to
// weakest and stops at the first strategy yielding exactly one candidate:
//
//  1. exact id equality
//  2. exact label equality (case-sensitive, then case-insensitive)
//  3. normalized-label equality, then base-name equality
//  4. lenient substring containment on the normalized label
//
// A miss returns (nil, false); callers attach the available labels to the
// NotFound diagnostics.
func ResolveCategory(ref models.CategoryRef, candidates []CategoryCandidate) (*CategoryCandidate, bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	if ref.HasExactID() {
		if match := matchOne(candidates, func(c CategoryCandidate) bool {
			return c.ID == ref.Value
		}); match != nil {
			return match, true
		}
	}

	label := ref.Label
	if label == "" && ref.Kind == models.CategoryRefByLabel {
		label = ref.Value
	}
	if label == "" {
		return nil, false
	}

	strategies := []func(CategoryCandidate) bool{
		func(c CategoryCandidate) bool { return c.Label == label },
		func(c CategoryCandidate) bool { return strings.EqualFold(c.Label, label) },
		func(c CategoryCandidate) bool {
			return NormalizeCategoryLabel(c.Label) == NormalizeCategoryLabel(label)
		},
		func(c CategoryCandidate) bool {
			return BaseCategoryName(c.Label) == BaseCategoryName(label)
		},
		func(c CategoryCandidate) bool {
			return strings.Contains(NormalizeCategoryLabel(c.Label), NormalizeCategoryLabel(label)) ||
				strings.Contains(NormalizeCategoryLabel(label), NormalizeCategoryLabel(c.Label))
		},
	}

	for _, strategy := range strategies {
		if match := matchOne(candidates, strategy); match != nil {
			return match, true
		}
	}
	return nil, false
}

// matchOne returns the candidate when the predicate selects exactly one.
func matchOne(candidates []CategoryCandidate, predicate func(CategoryCandidate) bool) *CategoryCandidate {
	var found *CategoryCandidate
	for i := range candidates {
		if predicate(candidates[i]) {
			if found != nil {
				return nil
			}
			found = &candidates[i]
		}
	}
	return found
}

func candidateLabels(candidates []CategoryCandidate) []string {
	labels := make([]string, 0, len(candidates))
	for _, c := range candidates {
		labels = append(labels, c.Label)
	}
	return labels
}
