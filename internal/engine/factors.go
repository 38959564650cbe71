package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// amounts formats explanation currency with digit grouping.
var amounts = message.NewPrinter(language.English)

// scoreSector returns the best sector affinity across the group: exact
// substring match either direction wins outright, a shared keyword group is
// a related match, anything else is a weak baseline.
func scoreSector(groups SectorGroups) FactorFunc {
	return func(p *Profile, _ TargetEntity, group []CandidateRecord) (float64, string, bool) {
		if p.industryLower == "" {
			return 0, "No industry specified", true
		}

		var best float64
		for _, rec := range group {
			v := sectorAffinity(groups, p.industryLower, rec.Sector, rec.SubSector)
			if v > best {
				best = v
			}
			if best >= 1.0 {
				break
			}
		}

		switch {
		case best >= 1.0:
			return best, "Sector match found", true
		case best >= 0.8:
			return best, fmt.Sprintf("Related sector match for %s", p.Industry), true
		case best > 0:
			return best, "No direct sector match", true
		default:
			return 0, "No sector data in catalog", true
		}
	}
}

func sectorAffinity(groups SectorGroups, industry, sector, subSector string) float64 {
	sector = strings.ToLower(strings.TrimSpace(sector))
	subSector = strings.ToLower(strings.TrimSpace(subSector))
	if sector == "" && subSector == "" {
		return 0
	}

	for _, label := range []string{sector, subSector} {
		if label == "" {
			continue
		}
		if labelMatches(label, industry) {
			return 1.0
		}
	}
	if groups.Related(industry, sector) || groups.Related(industry, subSector) {
		return 0.8
	}
	return 0.2
}

// scoreFundingFit returns how well the requested amount sits inside the best
// record's range. No requested amount is neutral; a record without any range
// data cannot be assessed and scores low.
func scoreFundingFit(p *Profile, _ TargetEntity, group []CandidateRecord) (float64, string, bool) {
	if p.RequiredFunding == nil {
		return 0.5, "Funding need not specified", true
	}
	required := *p.RequiredFunding

	var best float64
	for _, rec := range group {
		v := fundingFit(required, rec.FundingMin, rec.FundingMax)
		if v > best {
			best = v
		}
		if best >= 1.0 {
			break
		}
	}

	return best, amounts.Sprintf("Requested ₹%d", required), true
}

func fundingFit(required int64, min, max *int64) float64 {
	if min == nil && max == nil {
		return 0.2
	}
	lo := int64(0)
	if min != nil {
		lo = *min
	}
	hi := int64(math.MaxInt64)
	if max != nil {
		hi = *max
	}

	switch {
	case required >= lo && required <= hi:
		return 1.0
	case required < lo:
		if lo <= 0 {
			return 0.2
		}
		return math.Max(0.2, float64(required)/float64(lo))
	default:
		if required <= 0 {
			return 0.1
		}
		return math.Max(0.1, float64(hi)/float64(required))
	}
}

// scoreCostAdvantage rewards the cheapest money in the group: a grant when
// the founder wants one, otherwise the best subsidy or interest rate.
func scoreCostAdvantage(p *Profile, _ TargetEntity, group []CandidateRecord) (float64, string, bool) {
	best, note := 0.0, "No cost data in catalog"
	if len(group) == 0 {
		return 0, note, true
	}

	for _, rec := range group {
		v, n := costAdvantage(p.PrefersGrant, rec)
		if v > best || note == "No cost data in catalog" {
			best, note = v, n
		}
		if best >= 1.0 {
			break
		}
	}
	return best, note, true
}

func costAdvantage(prefersGrant bool, rec CandidateRecord) (float64, string) {
	if prefersGrant && strings.EqualFold(string(rec.FundingType), string(FundingGrant)) {
		return 1.0, "Grant available matching preference"
	}
	if rec.SubsidyPercent != nil {
		v := math.Min(1, math.Max(0, *rec.SubsidyPercent)/50)
		return v, fmt.Sprintf("Subsidy up to %.0f%%", *rec.SubsidyPercent)
	}
	if rec.InterestRate != nil {
		v := math.Min(1, math.Max(0, 15-*rec.InterestRate)/15)
		return v, fmt.Sprintf("Interest rate from %.1f%%", *rec.InterestRate)
	}
	return 0.3, "No cost data in catalog"
}

// scoreVerification saturates once five verified offers exist in the group.
func scoreVerification(noun string) FactorFunc {
	return func(_ *Profile, _ TargetEntity, group []CandidateRecord) (float64, string, bool) {
		verified := 0
		for _, rec := range group {
			if rec.Verified {
				verified++
			}
		}
		return math.Min(1, float64(verified)/5), fmt.Sprintf("%d verified %s", verified, noun), true
	}
}

// scoreJurisdiction awards the home-state bonus. When the profile has no
// registered state the factor is skipped entirely: it contributes nothing
// rather than zero, which caps the achievable score below 100.
func scoreJurisdiction(p *Profile, e TargetEntity, _ []CandidateRecord) (float64, string, bool) {
	if p.stateLower == "" {
		return 0, "", false
	}
	if strings.EqualFold(p.RegisteredState, e.Name) {
		return 1.0, fmt.Sprintf("Home state advantage in %s", e.Name), true
	}
	return 0, "Outside home state", true
}

// scorePopularity averages the popularity of up to the three most applied-to
// records. Groups smaller than three average over what exists.
func scorePopularity(_ *Profile, _ TargetEntity, group []CandidateRecord) (float64, string, bool) {
	top := topByPopularity(group, 3)
	if len(top) == 0 {
		return 0, "No application data", true
	}

	var sum float64
	for _, rec := range top {
		sum += float64(rec.PopularityScore)
	}
	mean := sum / float64(len(top))
	v := math.Min(1, math.Max(0, mean/100))
	return v, fmt.Sprintf("Average popularity %.0f across %d offers", mean, len(top)), true
}

// scoreBankType matches the sponsor's program types against the founder's
// preference. No stated preference is neutral.
func scoreBankType(p *Profile, _ TargetEntity, group []CandidateRecord) (float64, string, bool) {
	if len(p.bankTypesLower) == 0 {
		return 0.5, "No bank type preference", true
	}
	for _, rec := range group {
		bt := strings.ToLower(strings.TrimSpace(rec.BankType))
		if bt == "" {
			continue
		}
		for _, pref := range p.bankTypesLower {
			if bt == pref {
				return 1.0, fmt.Sprintf("Offers %s programs", rec.BankType), true
			}
		}
	}
	return 0.2, "No preferred bank type", true
}

// scoreCriteriaOverlap measures how many of the founder's special criteria
// and needed services the sponsor's programs cover.
func scoreCriteriaOverlap(p *Profile, _ TargetEntity, group []CandidateRecord) (float64, string, bool) {
	if len(p.criteriaLower) == 0 {
		return 0.5, "No special criteria specified", true
	}

	covered := make(map[string]bool, len(p.criteriaLower))
	for _, rec := range group {
		for _, tag := range rec.Criteria {
			tag = strings.ToLower(strings.TrimSpace(tag))
			for _, want := range p.criteriaLower {
				if tag == want || strings.Contains(tag, want) || strings.Contains(want, tag) {
					covered[want] = true
				}
			}
		}
	}

	if len(covered) == 0 {
		return 0.2, "No matching criteria", true
	}
	ratio := float64(len(covered)) / float64(len(p.criteriaLower))
	return ratio, fmt.Sprintf("Covers %d of %d criteria", len(covered), len(p.criteriaLower)), true
}

// topByPopularity returns up to k records sorted by popularity descending,
// ties broken by original catalog order.
func topByPopularity(group []CandidateRecord, k int) []CandidateRecord {
	if len(group) == 0 || k <= 0 {
		return nil
	}
	sorted := make([]CandidateRecord, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PopularityScore > sorted[j].PopularityScore
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}
