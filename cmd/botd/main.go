package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/snakecogs/cogvault/internal/buildinfo"
	"github.com/snakecogs/cogvault/internal/cogs/armorsmith"
	"github.com/snakecogs/cogvault/internal/cogs/bank"
	"github.com/snakecogs/cogvault/internal/config"
	"github.com/snakecogs/cogvault/internal/filex"
	"github.com/snakecogs/cogvault/internal/host"
	"github.com/snakecogs/cogvault/internal/host/console"
	"github.com/snakecogs/cogvault/internal/logging"
	"github.com/snakecogs/cogvault/internal/vault"
)

// defaultCatalog seeds the item shop on first run; it is written only
// when the catalog file does not exist yet.
var defaultCatalog = armorsmithCatalogSeed{
	Weapons: []armorsmith.Item{
		{Name: "Dagger", Cost: 10, HitDice: "1d4"},
		{Name: "Shortsword", Cost: 60, HitDice: "1d6"},
		{Name: "Greataxe", Cost: 150, HitDice: "1d12"},
	},
	Armor: []armorsmith.Item{
		{Name: "Leather Armor", Cost: 45, DamageReduction: 2},
		{Name: "Chain Mail", Cost: 75, DamageReduction: 4},
	},
	Potions: []armorsmith.Item{
		{Name: "Healing Salve", Cost: 25, HealDice: "2d4"},
	},
}

type armorsmithCatalogSeed struct {
	Weapons []armorsmith.Item `json:"weapons_list"`
	Armor   []armorsmith.Item `json:"armor_list"`
	Potions []armorsmith.Item `json:"potion_list"`
}

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	if err := run(cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := filex.EnsureDir(cfg.DataDir); err != nil {
		return err
	}

	logger, closer, err := logging.NewFileLogger(cfg.LogFile, parseLevel(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	dir := console.NewDirectory()
	salt, verifier, err := adminMaterial(cfg)
	if err != nil {
		return err
	}
	checker := console.NewChecker(dir, salt, verifier)
	messenger := console.NewMessenger(os.Stdout)

	walletStore := vault.NewStore[bank.Wallet](filepath.Join(cfg.DataDir, "bank.json"), dir)
	if err := walletStore.Load(); err != nil {
		return err
	}
	stashStore := vault.NewStore[armorsmith.Stash](filepath.Join(cfg.DataDir, "inventory.json"), dir)
	if err := stashStore.Load(); err != nil {
		return err
	}
	settings := bank.NewSettingsStore(filepath.Join(cfg.DataDir, "bank_settings.json"))
	if err := settings.Load(); err != nil {
		return err
	}

	if err := filex.EnsureJSONFile(cfg.CatalogFile, defaultCatalog); err != nil {
		return err
	}
	catalog := armorsmith.NewCatalog(cfg.CatalogFile, logger)
	if err := catalog.Load(); err != nil {
		return err
	}
	go func() {
		if err := catalog.Watch(ctx); err != nil && ctx.Err() == nil {
			logger.Error(ctx, "catalog watcher stopped", "err", err)
		}
	}()

	bankSvc := bank.NewService(walletStore, logger)
	stashSvc := armorsmith.NewService(stashStore, logger)

	dispatcher := host.NewDispatcher(checker, messenger, logger)
	if err := dispatcher.Register(bank.NewCog(bankSvc, settings, dir, messenger, logger)); err != nil {
		return err
	}
	if err := dispatcher.Register(armorsmith.NewCog(stashSvc, catalog, bankSvc, dir, messenger, logger)); err != nil {
		return err
	}

	repl := console.NewREPL(dir, checker, dispatcher, cfg.Prefix, logger)
	repl.Run(ctx, bufio.NewScanner(os.Stdin))
	return nil
}

func adminMaterial(cfg *config.Config) ([]byte, []byte, error) {
	if cfg.AdminSalt == "" || cfg.AdminVerifier == "" {
		return nil, nil, nil
	}
	salt, err := base64.StdEncoding.DecodeString(cfg.AdminSalt)
	if err != nil {
		return nil, nil, err
	}
	verifier, err := base64.StdEncoding.DecodeString(cfg.AdminVerifier)
	if err != nil {
		return nil, nil, err
	}
	return salt, verifier, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
