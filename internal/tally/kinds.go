package tally

import "fmt"

// FilterKind is the binning axis of a filter.
type FilterKind string

const (
	FilterUniverse     FilterKind = "universe"
	FilterMaterial     FilterKind = "material"
	FilterCell         FilterKind = "cell"
	FilterCellBorn     FilterKind = "cellborn"
	FilterSurface      FilterKind = "surface"
	FilterMesh         FilterKind = "mesh"
	FilterEnergy       FilterKind = "energy"
	FilterEnergyOut    FilterKind = "energyout"
	FilterDistribcell  FilterKind = "distribcell"
	FilterDelayedGroup FilterKind = "delayedgroup"
	FilterMu           FilterKind = "mu"
	FilterPolar        FilterKind = "polar"
	FilterAzimuthal    FilterKind = "azimuthal"
)

// binFamily groups filter kinds by how their bins are expressed.
type binFamily int

const (
	familyBoundary binFamily = iota + 1
	familyDiscrete
	familyMesh
)

var filterFamilies = map[FilterKind]binFamily{
	FilterUniverse:     familyDiscrete,
	FilterMaterial:     familyDiscrete,
	FilterCell:         familyDiscrete,
	FilterCellBorn:     familyDiscrete,
	FilterSurface:      familyDiscrete,
	FilterDistribcell:  familyDiscrete,
	FilterDelayedGroup: familyDiscrete,
	FilterMesh:         familyMesh,
	FilterEnergy:       familyBoundary,
	FilterEnergyOut:    familyBoundary,
	FilterMu:           familyBoundary,
	FilterPolar:        familyBoundary,
	FilterAzimuthal:    familyBoundary,
}

// Valid reports whether k is a filter kind the engine accepts.
func (k FilterKind) Valid() bool {
	_, ok := filterFamilies[k]
	return ok
}

func (k FilterKind) family() binFamily {
	return filterFamilies[k]
}

// UsesBoundaries reports whether k's bins are given as boundary values
// rather than ids or a mesh.
func (k FilterKind) UsesBoundaries() bool {
	return k.family() == familyBoundary
}

// ParseFilterKind converts a filter type name into a FilterKind.
func ParseFilterKind(name string) (FilterKind, error) {
	k := FilterKind(name)
	if !k.Valid() {
		return "", &ValidationError{Field: "filter.type", Message: fmt.Sprintf("unknown filter type %q", name)}
	}
	return k, nil
}

// Score is a physical quantity accumulated by a tally.
type Score string

const (
	ScoreFlux             Score = "flux"
	ScoreTotal            Score = "total"
	ScoreScatter          Score = "scatter"
	ScoreNuScatter        Score = "nu-scatter"
	ScoreAbsorption       Score = "absorption"
	ScoreFission          Score = "fission"
	ScoreNuFission        Score = "nu-fission"
	ScoreKappaFission     Score = "kappa-fission"
	ScoreEvents           Score = "events"
	ScoreCurrent          Score = "current"
	ScoreInverseVelocity  Score = "inverse-velocity"
	ScorePromptNuFission  Score = "prompt-nu-fission"
	ScoreDelayedNuFission Score = "delayed-nu-fission"
)

var knownScores = map[Score]struct{}{
	ScoreFlux:             {},
	ScoreTotal:            {},
	ScoreScatter:          {},
	ScoreNuScatter:        {},
	ScoreAbsorption:       {},
	ScoreFission:          {},
	ScoreNuFission:        {},
	ScoreKappaFission:     {},
	ScoreEvents:           {},
	ScoreCurrent:          {},
	ScoreInverseVelocity:  {},
	ScorePromptNuFission:  {},
	ScoreDelayedNuFission: {},
}

// Valid reports whether s is a score the engine accepts.
func (s Score) Valid() bool {
	_, ok := knownScores[s]
	return ok
}

// ParseScore converts a score name into a Score.
func ParseScore(name string) (Score, error) {
	s := Score(name)
	if !s.Valid() {
		return "", &ValidationError{Field: "score", Message: fmt.Sprintf("unknown score %q", name)}
	}
	return s, nil
}

// Estimator selects how the engine estimates a tally. The zero value leaves
// the choice to the engine.
type Estimator string

const (
	EstimatorAnalog      Estimator = "analog"
	EstimatorTracklength Estimator = "tracklength"
	EstimatorCollision   Estimator = "collision"
)

// ParseEstimator converts an estimator name into an Estimator. An empty name
// yields the zero Estimator.
func ParseEstimator(name string) (Estimator, error) {
	switch e := Estimator(name); e {
	case "", EstimatorAnalog, EstimatorTracklength, EstimatorCollision:
		return e, nil
	default:
		return "", &ValidationError{Field: "estimator", Message: fmt.Sprintf("unknown estimator %q", name)}
	}
}
