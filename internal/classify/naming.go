package classify

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jonathan/persona-engine/internal/types"
)

const (
	// maxNameLength is the maximum accepted name length, spaces excluded.
	maxNameLength = 14
	// maxNameWords is the maximum number of words in an accepted name.
	maxNameWords = 2
)

// defaultBannedTerms are never accepted as generated type names.
var defaultBannedTerms = []string{
	"neutral",
	"unknown",
	"default",
	"placeholder",
	"personality",
	"type",
}

// nameRegistry tracks accepted and banned name stems for one classification
// run, enforcing the no-duplicate rule across cells.
type nameRegistry struct {
	stems map[string]struct{}
	lower map[string]struct{}
}

func newNameRegistry(banned []string) *nameRegistry {
	r := &nameRegistry{
		stems: make(map[string]struct{}),
		lower: make(map[string]struct{}),
	}
	for _, term := range banned {
		r.stems[stemOf(term)] = struct{}{}
		r.lower[strings.ToLower(term)] = struct{}{}
	}
	return r
}

// check validates a candidate name against the naming rules. It does not
// register the name; accept does.
func (r *nameRegistry) check(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("name is empty")
	}

	lengthNoSpaces := 0
	for _, ch := range trimmed {
		if !unicode.IsSpace(ch) {
			lengthNoSpaces++
		}
	}
	if lengthNoSpaces > maxNameLength {
		return fmt.Errorf("name %q exceeds %d characters excluding spaces", trimmed, maxNameLength)
	}

	if words := strings.Fields(trimmed); len(words) > maxNameWords {
		return fmt.Errorf("name %q has more than %d words", trimmed, maxNameWords)
	}

	if _, taken := r.lower[strings.ToLower(trimmed)]; taken {
		return fmt.Errorf("name %q is a case-insensitive duplicate", trimmed)
	}
	if _, taken := r.stems[stemOf(trimmed)]; taken {
		return fmt.Errorf("name %q is a stem duplicate", trimmed)
	}
	return nil
}

// accept registers a validated name so later cells cannot reuse it.
func (r *nameRegistry) accept(name string) {
	trimmed := strings.TrimSpace(name)
	r.lower[strings.ToLower(trimmed)] = struct{}{}
	r.stems[stemOf(trimmed)] = struct{}{}
}

// stemOf reduces a name to a crude comparison stem: lowercase letters only,
// with common English suffixes stripped. "Dreamers" and "dreaming" collide.
func stemOf(name string) string {
	var sb strings.Builder
	for _, ch := range strings.ToLower(name) {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			sb.WriteRune(ch)
		}
	}
	stem := sb.String()
	for _, suffix := range []string{"ing", "ers", "ies", "er", "es", "s"} {
		if strings.HasSuffix(stem, suffix) && len(stem)-len(suffix) >= 3 {
			stem = strings.TrimSuffix(stem, suffix)
			break
		}
	}
	// fold a trailing silent e so "oracle"/"oracles" collide
	if strings.HasSuffix(stem, "e") && len(stem) >= 4 {
		stem = strings.TrimSuffix(stem, "e")
	}
	return stem
}

// fallbackName builds the deterministic substitute name for a cell from the
// two axes' polarity labels. It never fails: when the label-based name would
// collide with an accepted name, the cell code itself becomes the name, which
// is unique per cell by construction.
func fallbackName(cell polarityCell, axisA, axisB types.Axis, registry *nameRegistry) string {
	wordA := polarityWord(cell.a, axisA)
	wordB := polarityWord(cell.b, axisB)
	name := fmt.Sprintf("%s %s", truncateWord(wordA, 7), truncateWord(wordB, 7))
	if registry.check(name) == nil {
		return name
	}
	return cell.code()
}

// fallbackDescription is the deterministic substitute description for a cell.
func fallbackDescription(cell polarityCell, axisA, axisB types.Axis) string {
	return fmt.Sprintf("%s on %s, %s on %s.",
		strings.ToLower(string(cell.a)), axisA.Name,
		strings.ToLower(string(cell.b)), axisB.Name)
}

// polarityWord picks the axis label matching a polarity.
func polarityWord(p Polarity, axis types.Axis) string {
	switch p {
	case PolarityHigh:
		return axis.PositiveLabel
	case PolarityLow:
		return axis.NegativeLabel
	default:
		return "Balanced"
	}
}

func truncateWord(word string, limit int) string {
	runes := []rune(word)
	if len(runes) <= limit {
		return word
	}
	return string(runes[:limit])
}
