package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/sentenceparser/internal/core/db"
	"github.com/solatis/sentenceparser/internal/core/store"
	"github.com/solatis/sentenceparser/internal/rules"
)

// openDB connects and loads named queries. The schema must be fully
// migrated; callers are told to run migrate otherwise.
func (o *rootOptions) openDB() (*sqlx.DB, *db.Queries, error) {
	database, err := db.Open(o.cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	statuses, err := db.MigrateStatus(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			database.Close()
			return nil, nil, fmt.Errorf("migration %s not applied - run 'sentenceparser migrate' first", s.ID)
		}
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, queries, nil
}

// openStore returns the YAML file store when --rules-file is set and the
// database store otherwise. The returned close func is never nil.
func (o *rootOptions) openStore() (store.RuleStore, func(), error) {
	if o.rulesFile != "" {
		return store.NewFileStore(o.rulesFile), func() {}, nil
	}

	database, queries, err := o.openDB()
	if err != nil {
		return nil, nil, err
	}
	return store.NewSQLStore(queries), func() { database.Close() }, nil
}

// newEngine builds a rules engine from matcher configuration.
func (o *rootOptions) newEngine() *rules.Engine {
	return rules.NewEngine(
		rules.WithMatchTimeout(o.cfg.Matcher.MatchTimeout),
		rules.WithMaxCacheEntries(o.cfg.Matcher.CacheSize),
	)
}

// writeJSON encodes v as one line of JSON.
func writeJSON(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}
