package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"partyhub/config"
	"partyhub/internal/database"
	"partyhub/internal/domain"
	"partyhub/internal/repository/postgres"
)

// fixture is the YAML file cmd/partyseed consumes. Parties are upserted by
// (source "seed", id), so re-running the tool is safe.
type fixture struct {
	Parties []fixtureParty `yaml:"parties"`
}

type fixtureParty struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Venue       string    `yaml:"venue"`
	StartsAt    time.Time `yaml:"starts_at"`
	EndsAt      time.Time `yaml:"ends_at"`
	Category    string    `yaml:"category"`
	FocusTags   []string  `yaml:"focus_tags"`
	Capacity    int       `yaml:"capacity"`
	Featured    bool      `yaml:"featured"`
}

func main() {
	file := flag.String("file", "parties.yaml", "YAML fixture file of parties")
	wipe := flag.Bool("wipe", false, "delete all party data before seeding")
	flag.Parse()

	if err := run(*file, *wipe); err != nil {
		log.Fatal(err)
	}
}

func run(file string, wipe bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger()

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}
	if len(fx.Parties) == 0 {
		return fmt.Errorf("fixture %s contains no parties", file)
	}

	if wipe {
		// Saves reference parties, so they go too.
		if _, err := db.ExecContext(ctx, `TRUNCATE parties CASCADE`); err != nil {
			return fmt.Errorf("wipe parties: %w", err)
		}
		logger.Info("party data wiped")
	}

	partyRepo := postgres.NewPartyRepository(db)
	created, updated := 0, 0
	for i, fp := range fx.Parties {
		if fp.ID == "" || fp.Title == "" || fp.StartsAt.IsZero() {
			return fmt.Errorf("parties[%d]: id, title, and starts_at are required", i)
		}
		endsAt := fp.EndsAt
		if endsAt.IsZero() {
			endsAt = fp.StartsAt.Add(3 * time.Hour)
		}
		if !endsAt.After(fp.StartsAt) {
			return fmt.Errorf("parties[%d] %q: ends_at must be after starts_at", i, fp.ID)
		}

		p := &domain.Party{
			ExternalID:  fp.ID,
			Title:       fp.Title,
			Description: fp.Description,
			Venue:       fp.Venue,
			StartsAt:    fp.StartsAt,
			EndsAt:      endsAt,
			Category:    fp.Category,
			FocusTags:   fp.FocusTags,
			Capacity:    fp.Capacity,
			Featured:    fp.Featured,
			Source:      domain.PartySourceSeed,
		}
		inserted, err := partyRepo.UpsertFromFeed(ctx, p)
		if err != nil {
			return fmt.Errorf("upsert party %q: %w", fp.ID, err)
		}
		if inserted {
			created++
		} else {
			updated++
		}
	}

	logger.Info("seed complete", "file", file, "created", created, "updated", updated)
	return nil
}
