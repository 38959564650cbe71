package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/startupbase/fundmatch/internal/engine"
)

// SQLiteStore implements Store using modernc.org/sqlite, for local use
// without a Postgres instance.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS target_entities (
	id           TEXT PRIMARY KEY,
	domain       TEXT NOT NULL,
	name         TEXT NOT NULL,
	abbreviation TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS funding_records (
	id               TEXT PRIMARY KEY,
	domain           TEXT NOT NULL,
	entity_id        TEXT NOT NULL,
	name             TEXT NOT NULL,
	sector           TEXT NOT NULL DEFAULT '',
	sub_sector       TEXT NOT NULL DEFAULT '',
	funding_type     TEXT NOT NULL DEFAULT '',
	funding_min      INTEGER,
	funding_max      INTEGER,
	interest_rate    REAL,
	subsidy_percent  REAL,
	bank_type        TEXT NOT NULL DEFAULT '',
	criteria         TEXT,
	verified         INTEGER NOT NULL DEFAULT 0,
	popularity_score INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS match_results (
	id          TEXT PRIMARY KEY,
	domain      TEXT NOT NULL,
	profile     TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	entity_name TEXT NOT NULL,
	rank        INTEGER NOT NULL,
	score       INTEGER NOT NULL,
	explanation TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_target_entities_domain ON target_entities(domain);
CREATE INDEX IF NOT EXISTS idx_funding_records_domain ON funding_records(domain);
CREATE INDEX IF NOT EXISTS idx_funding_records_entity ON funding_records(entity_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadCatalog(ctx context.Context, domain Domain) (*Catalog, error) {
	entities, err := s.queryEntities(ctx, domain)
	if err != nil {
		return nil, err
	}
	records, err := s.queryRecords(ctx, domain)
	if err != nil {
		return nil, err
	}
	return &Catalog{Entities: entities, Records: records}, nil
}

func (s *SQLiteStore) queryEntities(ctx context.Context, domain Domain) ([]engine.TargetEntity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, abbreviation FROM target_entities WHERE domain = ? ORDER BY name, id`,
		string(domain),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query entities")
	}
	defer rows.Close()

	var entities []engine.TargetEntity
	for rows.Next() {
		var e engine.TargetEntity
		if err := rows.Scan(&e.ID, &e.Name, &e.Abbreviation); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan entity")
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate entities")
	}
	return entities, nil
}

func (s *SQLiteStore) queryRecords(ctx context.Context, domain Domain) ([]engine.CandidateRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_id, name, sector, sub_sector, funding_type,
		        funding_min, funding_max, interest_rate, subsidy_percent,
		        bank_type, criteria, verified, popularity_score
		 FROM funding_records WHERE domain = ? ORDER BY id`,
		string(domain),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query records")
	}
	defer rows.Close()

	var records []engine.CandidateRecord
	for rows.Next() {
		var (
			rec          engine.CandidateRecord
			fundingMin   sql.NullInt64
			fundingMax   sql.NullInt64
			interestRate sql.NullFloat64
			subsidyPct   sql.NullFloat64
			criteria     sql.NullString
		)
		err := rows.Scan(
			&rec.ID,
			&rec.TargetEntityID,
			&rec.Name,
			&rec.Sector,
			&rec.SubSector,
			&rec.FundingType,
			&fundingMin,
			&fundingMax,
			&interestRate,
			&subsidyPct,
			&rec.BankType,
			&criteria,
			&rec.Verified,
			&rec.PopularityScore,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		if fundingMin.Valid {
			rec.FundingMin = &fundingMin.Int64
		}
		if fundingMax.Valid {
			rec.FundingMax = &fundingMax.Int64
		}
		if interestRate.Valid {
			rec.InterestRate = &interestRate.Float64
		}
		if subsidyPct.Valid {
			rec.SubsidyPercent = &subsidyPct.Float64
		}
		if criteria.Valid && criteria.String != "" {
			if err := json.Unmarshal([]byte(criteria.String), &rec.Criteria); err != nil {
				// A damaged criteria blob degrades to "no criteria data"
				// instead of failing the whole catalog load.
				rec.Criteria = nil
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate records")
	}
	return records, nil
}

func (s *SQLiteStore) UpsertEntities(ctx context.Context, domain Domain, entities []engine.TargetEntity) (int, error) {
	n := 0
	for _, e := range entities {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO target_entities (id, domain, name, abbreviation)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET domain = excluded.domain,
			   name = excluded.name, abbreviation = excluded.abbreviation`,
			e.ID, string(domain), e.Name, e.Abbreviation,
		)
		if err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert entity %s", e.Name)
		}
		n++
	}
	return n, nil
}

func (s *SQLiteStore) UpsertRecords(ctx context.Context, domain Domain, records []engine.CandidateRecord) (int, error) {
	n := 0
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		criteriaJSON, err := json.Marshal(rec.Criteria)
		if err != nil {
			return n, eris.Wrapf(err, "sqlite: marshal criteria for %s", rec.Name)
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO funding_records
			   (id, domain, entity_id, name, sector, sub_sector, funding_type,
			    funding_min, funding_max, interest_rate, subsidy_percent,
			    bank_type, criteria, verified, popularity_score)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET domain = excluded.domain,
			   entity_id = excluded.entity_id, name = excluded.name,
			   sector = excluded.sector, sub_sector = excluded.sub_sector,
			   funding_type = excluded.funding_type, funding_min = excluded.funding_min,
			   funding_max = excluded.funding_max, interest_rate = excluded.interest_rate,
			   subsidy_percent = excluded.subsidy_percent, bank_type = excluded.bank_type,
			   criteria = excluded.criteria, verified = excluded.verified,
			   popularity_score = excluded.popularity_score`,
			rec.ID, string(domain), rec.TargetEntityID, rec.Name, rec.Sector,
			rec.SubSector, string(rec.FundingType), rec.FundingMin, rec.FundingMax,
			rec.InterestRate, rec.SubsidyPercent, rec.BankType, string(criteriaJSON),
			rec.Verified, rec.PopularityScore,
		)
		if err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert record %s", rec.Name)
		}
		n++
	}
	return n, nil
}

func (s *SQLiteStore) SaveResults(ctx context.Context, domain Domain, profile *engine.Profile, results []engine.MatchResult) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal profile")
	}

	now := time.Now().UTC()
	for rank, r := range results {
		explanationJSON, err := json.Marshal(r.Explanation)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal explanation")
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO match_results (id, domain, profile, entity_id, entity_name, rank, score, explanation, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), string(domain), string(profileJSON),
			r.TargetEntityID, r.TargetName, rank+1, r.Score, string(explanationJSON), now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: save result for %s", r.TargetName)
		}
	}
	return nil
}

func (s *SQLiteStore) Counts(ctx context.Context) (map[Domain]Counts, error) {
	counts := map[Domain]Counts{}

	for _, q := range []struct {
		sql      string
		entities bool
	}{
		{`SELECT domain, count(*) FROM target_entities GROUP BY domain`, true},
		{`SELECT domain, count(*) FROM funding_records GROUP BY domain`, false},
	} {
		rows, err := s.db.QueryContext(ctx, q.sql)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: count")
		}
		for rows.Next() {
			var domain string
			var n int
			if err := rows.Scan(&domain, &n); err != nil {
				rows.Close()
				return nil, eris.Wrap(err, "sqlite: scan counts")
			}
			c := counts[Domain(domain)]
			if q.entities {
				c.Entities = n
			} else {
				c.Records = n
			}
			counts[Domain(domain)] = c
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "sqlite: iterate counts")
		}
		rows.Close()
	}

	return counts, nil
}
