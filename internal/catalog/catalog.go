// Package catalog persists the funding catalogs the match engine ranks:
// target entities and their candidate records, keyed by domain.
package catalog

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/startupbase/fundmatch/internal/engine"
)

// Domain selects one of the two catalog instantiations.
type Domain string

const (
	DomainSchemes Domain = "schemes"
	DomainBanks   Domain = "banks"
)

// ParseDomain validates a user-supplied domain name.
func ParseDomain(s string) (Domain, error) {
	switch Domain(s) {
	case DomainSchemes, DomainBanks:
		return Domain(s), nil
	default:
		return "", eris.Errorf("catalog: unknown domain %q (want schemes or banks)", s)
	}
}

// Catalog is the full input of one match call: every entity of a domain and
// every record, in stable catalog order.
type Catalog struct {
	Entities []engine.TargetEntity
	Records  []engine.CandidateRecord
}

// Counts summarizes one domain's catalog size.
type Counts struct {
	Entities int `json:"entities"`
	Records  int `json:"records"`
}

// Store is the persistence interface for catalogs and saved shortlists.
type Store interface {
	LoadCatalog(ctx context.Context, domain Domain) (*Catalog, error)
	UpsertEntities(ctx context.Context, domain Domain, entities []engine.TargetEntity) (int, error)
	UpsertRecords(ctx context.Context, domain Domain, records []engine.CandidateRecord) (int, error)
	SaveResults(ctx context.Context, domain Domain, profile *engine.Profile, results []engine.MatchResult) error
	Counts(ctx context.Context) (map[Domain]Counts, error)
	Migrate(ctx context.Context) error
	Close() error
}
