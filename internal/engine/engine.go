package engine

import (
	"math"
	"sort"
)

// Match runs one instantiation of the pipeline: normalize the profile,
// group records by target entity, score every factor per group, aggregate
// into a 0-100 composite, and rank. Every supplied entity appears in the
// output; display truncation is the caller's concern.
func Match(rules RuleSet, p *Profile, entities []TargetEntity, records []CandidateRecord) ([]MatchResult, error) {
	norm, err := Normalize(p)
	if err != nil {
		return nil, err
	}

	groups := groupRecords(entities, records)

	results := make([]MatchResult, 0, len(entities))
	for _, entity := range entities {
		group := groups[entity.ID]

		var total float64
		explanation := make([]FactorScore, 0, len(rules.Factors))
		for _, factor := range rules.Factors {
			value, note, ok := safeScore(factor.Score, norm, entity, group)
			if !ok {
				continue
			}
			contribution := value * 100 * factor.Weight
			total += contribution
			explanation = append(explanation, FactorScore{
				Factor: factor.Key,
				Value:  math.Round(contribution*100) / 100,
				Weight: factor.Weight,
				Note:   note,
			})
		}

		results = append(results, MatchResult{
			TargetEntityID: entity.ID,
			TargetName:     entity.Name,
			Score:          int(math.Round(math.Min(100, math.Max(0, total)))),
			Explanation:    explanation,
			TopRecords:     topByPopularity(group, 3),
		})
	}

	// Ties keep the input order of entities.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// MatchSchemes ranks state-government schemes grouped by state.
func MatchSchemes(groups SectorGroups, p *Profile, states []TargetEntity, schemes []CandidateRecord) ([]MatchResult, error) {
	return Match(SchemeRules(groups), p, states, schemes)
}

// MatchBanks ranks bank and fintech programs grouped by sponsor.
func MatchBanks(groups SectorGroups, p *Profile, banks []TargetEntity, programs []CandidateRecord) ([]MatchResult, error) {
	return Match(BankRules(groups), p, banks, programs)
}

// groupRecords partitions records by target entity in one pass. Records
// referencing an unknown entity are dropped; entities with no records still
// get an entry so they rank with a visible floor.
func groupRecords(entities []TargetEntity, records []CandidateRecord) map[string][]CandidateRecord {
	groups := make(map[string][]CandidateRecord, len(entities))
	for _, e := range entities {
		groups[e.ID] = nil
	}
	for _, rec := range records {
		if _, known := groups[rec.TargetEntityID]; !known {
			continue
		}
		groups[rec.TargetEntityID] = append(groups[rec.TargetEntityID], rec)
	}
	return groups
}

// safeScore runs a factor scorer with a safety net: a panicking or
// non-finite scorer contributes zero instead of aborting the whole ranking.
func safeScore(fn FactorFunc, p *Profile, e TargetEntity, group []CandidateRecord) (value float64, note string, ok bool) {
	defer func() {
		if recover() != nil {
			value, note, ok = 0, "Factor unavailable", true
		}
	}()

	value, note, ok = fn(p, e, group)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, "Factor unavailable", ok
	}
	// Clamp before weighting so one malformed record cannot push the
	// composite outside its bounds.
	return math.Min(1, math.Max(0, value)), note, ok
}
