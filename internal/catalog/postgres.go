package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/startupbase/fundmatch/internal/engine"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS target_entities (
	id           TEXT PRIMARY KEY,
	domain       TEXT NOT NULL,
	name         TEXT NOT NULL,
	abbreviation TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS funding_records (
	id               TEXT PRIMARY KEY,
	domain           TEXT NOT NULL,
	entity_id        TEXT NOT NULL,
	name             TEXT NOT NULL,
	sector           TEXT NOT NULL DEFAULT '',
	sub_sector       TEXT NOT NULL DEFAULT '',
	funding_type     TEXT NOT NULL DEFAULT '',
	funding_min      BIGINT,
	funding_max      BIGINT,
	interest_rate    DOUBLE PRECISION,
	subsidy_percent  DOUBLE PRECISION,
	bank_type        TEXT NOT NULL DEFAULT '',
	criteria         JSONB,
	verified         BOOLEAN NOT NULL DEFAULT false,
	popularity_score INT NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS match_results (
	id          TEXT PRIMARY KEY,
	domain      TEXT NOT NULL,
	profile     JSONB NOT NULL,
	entity_id   TEXT NOT NULL,
	entity_name TEXT NOT NULL,
	rank        INT NOT NULL,
	score       INT NOT NULL,
	explanation JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_target_entities_domain ON target_entities(domain);
CREATE INDEX IF NOT EXISTS idx_funding_records_domain ON funding_records(domain);
CREATE INDEX IF NOT EXISTS idx_funding_records_entity ON funding_records(entity_id);
CREATE INDEX IF NOT EXISTS idx_match_results_domain ON match_results(domain, created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// LoadCatalog fetches a domain's entities and records concurrently. Both
// lists come back in stable catalog order (name for entities, id for
// records) so repeated matches rank deterministically.
func (s *PostgresStore) LoadCatalog(ctx context.Context, domain Domain) (*Catalog, error) {
	var cat Catalog

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entities, err := s.queryEntities(gctx, domain)
		if err != nil {
			return err
		}
		cat.Entities = entities
		return nil
	})
	g.Go(func() error {
		records, err := s.queryRecords(gctx, domain)
		if err != nil {
			return err
		}
		cat.Records = records
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &cat, nil
}

func (s *PostgresStore) queryEntities(ctx context.Context, domain Domain) ([]engine.TargetEntity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, abbreviation FROM target_entities WHERE domain = $1 ORDER BY name, id`,
		string(domain),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query entities")
	}
	defer rows.Close()

	var entities []engine.TargetEntity
	for rows.Next() {
		var e engine.TargetEntity
		if err := rows.Scan(&e.ID, &e.Name, &e.Abbreviation); err != nil {
			return nil, eris.Wrap(err, "postgres: scan entity")
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate entities")
	}
	return entities, nil
}

func (s *PostgresStore) queryRecords(ctx context.Context, domain Domain) ([]engine.CandidateRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, entity_id, name, sector, sub_sector, funding_type,
		        funding_min, funding_max, interest_rate, subsidy_percent,
		        bank_type, COALESCE(criteria, '[]'::jsonb), verified, popularity_score
		 FROM funding_records WHERE domain = $1 ORDER BY id`,
		string(domain),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query records")
	}
	defer rows.Close()

	var records []engine.CandidateRecord
	for rows.Next() {
		var rec engine.CandidateRecord
		err := rows.Scan(
			&rec.ID,
			&rec.TargetEntityID,
			&rec.Name,
			&rec.Sector,
			&rec.SubSector,
			&rec.FundingType,
			&rec.FundingMin,
			&rec.FundingMax,
			&rec.InterestRate,
			&rec.SubsidyPercent,
			&rec.BankType,
			&rec.Criteria,
			&rec.Verified,
			&rec.PopularityScore,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate records")
	}
	return records, nil
}

func (s *PostgresStore) UpsertEntities(ctx context.Context, domain Domain, entities []engine.TargetEntity) (int, error) {
	n := 0
	for _, e := range entities {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO target_entities (id, domain, name, abbreviation)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET domain = $2, name = $3, abbreviation = $4`,
			e.ID, string(domain), e.Name, e.Abbreviation,
		)
		if err != nil {
			return n, eris.Wrapf(err, "postgres: upsert entity %s", e.Name)
		}
		n++
	}
	return n, nil
}

func (s *PostgresStore) UpsertRecords(ctx context.Context, domain Domain, records []engine.CandidateRecord) (int, error) {
	n := 0
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		criteriaJSON, err := json.Marshal(rec.Criteria)
		if err != nil {
			return n, eris.Wrapf(err, "postgres: marshal criteria for %s", rec.Name)
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO funding_records
			   (id, domain, entity_id, name, sector, sub_sector, funding_type,
			    funding_min, funding_max, interest_rate, subsidy_percent,
			    bank_type, criteria, verified, popularity_score)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14, $15)
			 ON CONFLICT (id) DO UPDATE SET
			   domain = $2, entity_id = $3, name = $4, sector = $5,
			   sub_sector = $6, funding_type = $7, funding_min = $8,
			   funding_max = $9, interest_rate = $10, subsidy_percent = $11,
			   bank_type = $12, criteria = $13, verified = $14, popularity_score = $15`,
			rec.ID, string(domain), rec.TargetEntityID, rec.Name, rec.Sector,
			rec.SubSector, string(rec.FundingType), rec.FundingMin, rec.FundingMax,
			rec.InterestRate, rec.SubsidyPercent, rec.BankType, string(criteriaJSON),
			rec.Verified, rec.PopularityScore,
		)
		if err != nil {
			return n, eris.Wrapf(err, "postgres: upsert record %s", rec.Name)
		}
		n++
	}
	return n, nil
}

func (s *PostgresStore) SaveResults(ctx context.Context, domain Domain, profile *engine.Profile, results []engine.MatchResult) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal profile")
	}

	now := time.Now().UTC()
	for rank, r := range results {
		explanationJSON, err := json.Marshal(r.Explanation)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal explanation")
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO match_results (id, domain, profile, entity_id, entity_name, rank, score, explanation, created_at)
			 VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7, $8::jsonb, $9)`,
			uuid.New().String(), string(domain), string(profileJSON),
			r.TargetEntityID, r.TargetName, rank+1, r.Score, string(explanationJSON), now,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: save result for %s", r.TargetName)
		}
	}
	return nil
}

func (s *PostgresStore) Counts(ctx context.Context) (map[Domain]Counts, error) {
	counts := map[Domain]Counts{}

	rows, err := s.pool.Query(ctx, `SELECT domain, count(*) FROM target_entities GROUP BY domain`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count entities")
	}
	if err := scanCounts(rows, counts, true); err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `SELECT domain, count(*) FROM funding_records GROUP BY domain`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count records")
	}
	if err := scanCounts(rows, counts, false); err != nil {
		return nil, err
	}

	return counts, nil
}

func scanCounts(rows pgx.Rows, counts map[Domain]Counts, entities bool) error {
	defer rows.Close()
	for rows.Next() {
		var domain string
		var n int
		if err := rows.Scan(&domain, &n); err != nil {
			return eris.Wrap(err, "postgres: scan counts")
		}
		c := counts[Domain(domain)]
		if entities {
			c.Entities = n
		} else {
			c.Records = n
		}
		counts[Domain(domain)] = c
	}
	return eris.Wrap(rows.Err(), "postgres: iterate counts")
}
