package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/flowdesk/internal/config"
	"github.com/jask/flowdesk/internal/database"
	"github.com/jask/flowdesk/internal/database/repository"
	"github.com/jask/flowdesk/internal/fixtures"
	"github.com/jask/flowdesk/internal/graphql"
	"github.com/jask/flowdesk/internal/logging"
	"github.com/jask/flowdesk/internal/mutation"
	"github.com/jask/flowdesk/internal/secrets"
	"github.com/jask/flowdesk/internal/service"
	"github.com/jask/flowdesk/internal/testdata"
	"github.com/jask/flowdesk/internal/tui"
)

func main() {
	reset := flag.Bool("reset", false, "clear stored nodes, catalog and mutation log, then exit")
	pruneDays := flag.Int("prune-log", 0, "delete mutation log entries older than this many days, then exit")
	initConfig := flag.Bool("init-config", false, "write the effective configuration to the config file, then exit")
	storeToken := flag.Bool("store-token", false, "read an API token for the configured endpoint from stdin and store it, then exit")
	synthetic := flag.Bool("synthetic", false, "replace the stored tree with a generated demo workflow")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *initConfig {
		if err := config.Save(cfg); err != nil {
			log.Fatalf("save config: %v", err)
		}
		return
	}
	tokens := secrets.Store{}
	if *storeToken {
		if err := saveToken(tokens, cfg.Remote.Endpoint); err != nil {
			log.Fatalf("store token: %v", err)
		}
		return
	}

	logger, closer, err := logging.New("flowdesk", logging.ProfileRuntime, logging.Config{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		JSON:  cfg.Log.JSON,
	})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer closer.Close()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}

	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	maintenance := &service.MaintenanceService{DB: db}
	if *reset {
		if err := maintenance.Reset(ctx); err != nil {
			log.Fatalf("reset: %v", err)
		}
		fmt.Println("local state cleared")
		return
	}
	if *pruneDays > 0 {
		n, err := maintenance.PruneLog(ctx, time.Now().UTC().AddDate(0, 0, -*pruneDays))
		if err != nil {
			log.Fatalf("prune log: %v", err)
		}
		fmt.Printf("removed %d log entries\n", n)
		return
	}

	fx, err := loadFixture(cfg.Fixtures.Path)
	if err != nil {
		log.Fatalf("fixtures: %v", err)
	}
	if err := database.SeedDefaults(ctx, db, fx); err != nil {
		log.Fatalf("seed defaults: %v", err)
	}

	// repositories
	nodeRepo := repository.NewNodeRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	auditRepo := repository.NewMutationLogRepo(db)

	if n, err := auditRepo.AbandonPending(ctx, time.Now().UTC()); err != nil {
		logger.Warn().Err(err).Msg("abandon pending mutations")
	} else if n > 0 {
		logger.Info().Int64("count", n).Msg("marked unfinished mutations as abandoned")
	}

	// primary menu entries fall back to the fixture's for kinds the config
	// leaves unset, with or without a server
	cfg.FillPrimary(fx.Primary)

	var (
		feed   service.Introspector
		remote mutation.Executor
	)
	if cfg.Offline() {
		remote = graphql.Offline()
		logger.Info().Msg("offline mode: catalog from fixtures")
	} else {
		client := graphql.NewClient(cfg.Remote.Endpoint, resolveToken(cfg, tokens), logging.Component(logger, "graphql"))
		if cfg.Remote.IntrospectionTimeout > 0 {
			client.IntrospectionTimeout = cfg.Remote.IntrospectionTimeout
		}
		feed, remote = client, client
	}

	// services
	catalog := &service.CatalogService{Feed: feed, Snapshots: catalogRepo, Log: logging.Component(logger, "catalog")}
	tree := &service.TreeService{Nodes: nodeRepo}
	mutations := &service.MutationService{Remote: remote, Audit: auditRepo, Log: logging.Component(logger, "mutation")}

	if *synthetic {
		if _, err := tree.Seed(ctx, testdata.Workflow("demo", testdata.DefaultShape, time.Now().UnixNano())); err != nil {
			log.Fatalf("synthetic tree: %v", err)
		}
	}

	p := tea.NewProgram(tui.New(ctx, cfg,
		tui.Services{Catalog: catalog, Tree: tree, Executor: mutations},
		logging.Component(logger, "tui"),
	), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func loadFixture(path string) (*fixtures.Fixture, error) {
	if path == "" {
		return fixtures.Default(), nil
	}
	return fixtures.Load(path)
}

// resolveToken prefers the configured token (FLOWDESK_REMOTE_TOKEN) and
// falls back to the token store.
func resolveToken(cfg config.Config, store secrets.Store) string {
	if t := strings.TrimSpace(cfg.Remote.Token); t != "" {
		return t
	}
	t, err := store.Get(cfg.Remote.Endpoint)
	if err != nil && !errors.Is(err, secrets.ErrNotFound) {
		log.Printf("warn: token store: %v", err)
	}
	return t
}

func saveToken(store secrets.Store, endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return errors.New("remote.endpoint is not configured")
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return store.Delete(endpoint)
	}
	return store.Put(endpoint, token)
}
