package engine

// FundingType classifies how a funding offer is disbursed.
type FundingType string

const (
	FundingGrant   FundingType = "grant"
	FundingLoan    FundingType = "loan"
	FundingSubsidy FundingType = "subsidy"
	FundingEquity  FundingType = "equity"
)

// TargetEntity is the thing being ranked against a profile: a state for
// government schemes, or a sponsoring institution for bank programs.
type TargetEntity struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Abbreviation string `json:"abbreviation,omitempty" yaml:"abbreviation,omitempty"`
}

// CandidateRecord is a single funding offer belonging to exactly one
// target entity. Numeric fields are pointers: nil means the catalog has no
// data, which is distinct from zero.
type CandidateRecord struct {
	ID              string      `json:"id" yaml:"id"`
	TargetEntityID  string      `json:"target_entity_id" yaml:"entity_id"`
	Name            string      `json:"name" yaml:"name"`
	Sector          string      `json:"sector,omitempty" yaml:"sector,omitempty"`
	SubSector       string      `json:"sub_sector,omitempty" yaml:"sub_sector,omitempty"`
	FundingType     FundingType `json:"funding_type,omitempty" yaml:"funding_type,omitempty"`
	FundingMin      *int64      `json:"funding_min,omitempty" yaml:"funding_min,omitempty"`
	FundingMax      *int64      `json:"funding_max,omitempty" yaml:"funding_max,omitempty"`
	InterestRate    *float64    `json:"interest_rate,omitempty" yaml:"interest_rate,omitempty"`
	SubsidyPercent  *float64    `json:"subsidy_percent,omitempty" yaml:"subsidy_percent,omitempty"`
	BankType        string      `json:"bank_type,omitempty" yaml:"bank_type,omitempty"`
	Criteria        []string    `json:"criteria,omitempty" yaml:"criteria,omitempty"`
	Verified        bool        `json:"verified" yaml:"verified"`
	PopularityScore int         `json:"popularity_score" yaml:"popularity_score"`
}

// FactorScore is one entry of a match explanation: the points a single
// factor contributed to the composite score.
type FactorScore struct {
	Factor string  `json:"factor"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
	Note   string  `json:"note"`
}

// MatchResult is the ranked outcome for one target entity.
type MatchResult struct {
	TargetEntityID string            `json:"target_entity_id"`
	TargetName     string            `json:"target_name"`
	Score          int               `json:"score"`
	Explanation    []FactorScore     `json:"explanation"`
	TopRecords     []CandidateRecord `json:"top_records"`
}
