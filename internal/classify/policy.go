package classify

// TiePolicy resolves the exact-tie case in forced binarization: both dominant
// axes classified Neutral and their scores numerically equal.
type TiePolicy interface {
	// ResolveTie returns the polarities for axisA and axisB on an exact tie.
	ResolveTie() (polarityA, polarityB Polarity)
}

// NeutralTiePolicy keeps both axes Neutral on an exact tie, so no
// binarization occurs. This is the default.
type NeutralTiePolicy struct{}

// ResolveTie implements TiePolicy.
func (NeutralTiePolicy) ResolveTie() (Polarity, Polarity) {
	return PolarityNeutral, PolarityNeutral
}

// DeclarationOrderTiePolicy marks the earlier-declared axis High and the
// other Low, mirroring the dominant-axis tie-break rule.
type DeclarationOrderTiePolicy struct{}

// ResolveTie implements TiePolicy.
func (DeclarationOrderTiePolicy) ResolveTie() (Polarity, Polarity) {
	return PolarityHigh, PolarityLow
}

// TiePolicyByName returns the policy registered under name, defaulting to
// NeutralTiePolicy for unknown names.
func TiePolicyByName(name string) TiePolicy {
	switch name {
	case "declaration-order":
		return DeclarationOrderTiePolicy{}
	default:
		return NeutralTiePolicy{}
	}
}

// ExpansionPolicy decides how many neutral variant cells to surface on top of
// the 4 base polarity cells.
type ExpansionPolicy interface {
	// NeutralVariants returns how many neutral variant cells to add given
	// which dominant axes classified Neutral before forced binarization and
	// whether binarization separated them afterwards.
	NeutralVariants(neutralA, neutralB, binarized bool) int
}

// PerAxisExpansionPolicy adds one variant per pre-binarization Neutral axis.
// When both axes were Neutral and binarization did not separate them, the two
// variants would occupy the same Md-Md cell, so only one is added.
type PerAxisExpansionPolicy struct{}

// NeutralVariants implements ExpansionPolicy.
func (PerAxisExpansionPolicy) NeutralVariants(neutralA, neutralB, binarized bool) int {
	count := 0
	if neutralA {
		count++
	}
	if neutralB {
		count++
	}
	if count == 2 && !binarized {
		return 1
	}
	return count
}
