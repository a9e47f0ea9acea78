// Command musicvault runs the MusicVault web application.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/cwhit/musicvault/internal/config"
	"github.com/cwhit/musicvault/internal/db"
	"github.com/cwhit/musicvault/internal/gateway"
	"github.com/cwhit/musicvault/internal/identity"
	"github.com/cwhit/musicvault/internal/localstore"
	"github.com/cwhit/musicvault/internal/storage"
	"github.com/cwhit/musicvault/internal/web"
	webfs "github.com/cwhit/musicvault/web"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	app := &cli.Command{
		Name:    "musicvault",
		Usage:   "Personal music library with uploads, playlists and playback",
		Version: "0.3.0",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server",
				Flags: []cli.Flag{configFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return serve(ctx, cmd.String("config"), logger)
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply pending database migrations",
				Flags: []cli.Flag{configFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return migrate(ctx, cmd.String("config"), logger)
				},
			},
			{
				Name:  "init",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{configFlag},
				Action: func(_ context.Context, cmd *cli.Command) error {
					path := cmd.String("config")
					if err := config.WriteExample(path); err != nil {
						return err
					}
					logger.Info("wrote example config", "path", path)
					return nil
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatal("application error", "err", err)
	}
}

// loadConfig reads the config file, tolerating a missing file at the
// default path.
func loadConfig(path string, logger *log.Logger) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		logger.Warn("config file not found, using defaults", "path", path)
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	return cfg, nil
}

func serve(ctx context.Context, configPath string, logger *log.Logger) error {
	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		return err
	}

	database, err := db.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	store, err := storage.New(storage.Config{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.Bucket,
		UseSSL:        cfg.Storage.UseSSL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		return fmt.Errorf("connecting to object storage: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Warn("ensuring songs bucket, uploads may fail", "err", err)
	}

	local, err := localstore.Open(cfg.Fallback.Path)
	if err != nil {
		return fmt.Errorf("opening fallback store: %w", err)
	}
	defer local.Close()

	gw := gateway.New(database, store, logger)
	blobs := gateway.NewBlobCache()
	events := identity.NewBroadcaster()
	provider := identity.NewProvider(database.Accounts(), events, cfg.Auth.RequireEmailConfirmation, logger)
	resolver := identity.NewResolver(gw, local, blobs, logger)

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}
	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	sessionTTL := time.Duration(cfg.Auth.SessionTTLHours) * time.Hour
	var sessions web.SessionManager
	if cfg.Auth.SessionStore == "database" {
		sessions = web.NewDBSessionStore(database, sessionTTL)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Server.Addr,
		SessionTTL:  sessionTTL,
		Sessions:    sessions,
		Provider:    provider,
		Resolver:    resolver,
		Blobs:       blobs,
		TemplatesFS: templates,
		StaticFS:    static,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

func migrate(ctx context.Context, configPath string, logger *log.Logger) error {
	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		return err
	}

	database, err := db.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	applied, err := database.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations complete", "applied", applied)
	return nil
}
