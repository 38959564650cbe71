package engine

import (
	"math"

	"github.com/rotisserie/eris"
)

// FactorFunc scores one matching dimension for a target entity. The value
// must land in [0,1]; ok=false means the factor was not evaluated at all and
// contributes nothing (as opposed to contributing zero).
type FactorFunc func(p *Profile, e TargetEntity, group []CandidateRecord) (value float64, note string, ok bool)

// Factor pairs a scorer with its key and weight. Scorers never see the
// weight; the aggregator applies it.
type Factor struct {
	Key    string
	Weight float64
	Score  FactorFunc
}

// RuleSet is one instantiation of the match pipeline: an ordered factor list
// whose order also fixes the explanation order.
type RuleSet struct {
	Domain  string
	Factors []Factor
}

// SchemeRules builds the state-scheme rule set. The jurisdiction factor is
// conditional: profiles without a registered state top out at 90, not 100.
// That asymmetry matches the shipped ranking behavior and is kept as-is so
// existing orderings do not shift.
func SchemeRules(groups SectorGroups) RuleSet {
	return RuleSet{
		Domain: "schemes",
		Factors: []Factor{
			{Key: "sector", Weight: 0.40, Score: scoreSector(groups)},
			{Key: "funding", Weight: 0.20, Score: scoreFundingFit},
			{Key: "cost", Weight: 0.15, Score: scoreCostAdvantage},
			{Key: "verification", Weight: 0.10, Score: scoreVerification("schemes")},
			{Key: "jurisdiction", Weight: 0.10, Score: scoreJurisdiction},
			{Key: "popularity", Weight: 0.05, Score: scorePopularity},
		},
	}
}

// BankRules builds the bank/fintech program rule set. No conditional factor,
// so a perfect profile can reach 100.
func BankRules(groups SectorGroups) RuleSet {
	return RuleSet{
		Domain: "banks",
		Factors: []Factor{
			{Key: "sector", Weight: 0.35, Score: scoreSector(groups)},
			{Key: "funding", Weight: 0.20, Score: scoreFundingFit},
			{Key: "cost", Weight: 0.15, Score: scoreCostAdvantage},
			{Key: "bank_type", Weight: 0.10, Score: scoreBankType},
			{Key: "criteria", Weight: 0.10, Score: scoreCriteriaOverlap},
			{Key: "verification", Weight: 0.05, Score: scoreVerification("programs")},
			{Key: "popularity", Weight: 0.05, Score: scorePopularity},
		},
	}
}

// Validate checks a rule set for non-negative weights summing to 1.
func (rs RuleSet) Validate() error {
	var sum float64
	for _, f := range rs.Factors {
		if f.Weight < 0 {
			return eris.Errorf("rules: %s: factor %s has negative weight", rs.Domain, f.Key)
		}
		if f.Score == nil {
			return eris.Errorf("rules: %s: factor %s has no scorer", rs.Domain, f.Key)
		}
		sum += f.Weight
	}
	if math.Abs(sum-1.0) > 0.001 {
		return eris.Errorf("rules: %s: weights sum to %.3f, want 1.0", rs.Domain, sum)
	}
	return nil
}
