package catalog

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/startupbase/fundmatch/internal/engine"
)

// SeedDomain is one domain's worth of entities and records in a seed file.
type SeedDomain struct {
	Entities []engine.TargetEntity    `yaml:"entities"`
	Records  []engine.CandidateRecord `yaml:"records"`
}

// SeedFile is the on-disk YAML layout accepted by the seed command.
type SeedFile struct {
	Schemes SeedDomain `yaml:"schemes"`
	Banks   SeedDomain `yaml:"banks"`
}

// LoadSeedFile parses a YAML seed file and fills in missing identifiers.
// Records that name an entity by abbreviation or name instead of ID are
// resolved against the entities declared in the same domain.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read seed file %s", path)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, eris.Wrapf(err, "catalog: parse seed file %s", path)
	}

	for _, sd := range []*SeedDomain{&seed.Schemes, &seed.Banks} {
		if err := sd.resolve(); err != nil {
			return nil, err
		}
	}
	return &seed, nil
}

func (sd *SeedDomain) resolve() error {
	byRef := make(map[string]string, len(sd.Entities)*2)
	for i := range sd.Entities {
		if sd.Entities[i].ID == "" {
			sd.Entities[i].ID = uuid.New().String()
		}
		byRef[sd.Entities[i].ID] = sd.Entities[i].ID
		byRef[sd.Entities[i].Name] = sd.Entities[i].ID
		if sd.Entities[i].Abbreviation != "" {
			byRef[sd.Entities[i].Abbreviation] = sd.Entities[i].ID
		}
	}

	for i := range sd.Records {
		if sd.Records[i].ID == "" {
			sd.Records[i].ID = uuid.New().String()
		}
		ref := sd.Records[i].TargetEntityID
		id, ok := byRef[ref]
		if !ok {
			return eris.Errorf("catalog: record %q references unknown entity %q",
				sd.Records[i].Name, ref)
		}
		sd.Records[i].TargetEntityID = id
	}
	return nil
}

// Apply writes the seed file's contents into the store, both domains.
func (seed *SeedFile) Apply(ctx context.Context, store Store) error {
	for _, d := range []struct {
		domain Domain
		data   SeedDomain
	}{
		{DomainSchemes, seed.Schemes},
		{DomainBanks, seed.Banks},
	} {
		ne, err := store.UpsertEntities(ctx, d.domain, d.data.Entities)
		if err != nil {
			return err
		}
		nr, err := store.UpsertRecords(ctx, d.domain, d.data.Records)
		if err != nil {
			return err
		}
		zap.L().Info("seeded domain",
			zap.String("domain", string(d.domain)),
			zap.Int("entities", ne),
			zap.Int("records", nr))
	}
	return nil
}
