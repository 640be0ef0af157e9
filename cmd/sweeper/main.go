package main

import (
	"github.com/joho/godotenv"

	"mapforge/internal/artifacts"
	"mapforge/internal/infra"
)

// Removes leftover map directories and archives older than the configured
// TTL. The API schedules its own cleanup, so this only matters after a
// crash or an unclean restart. Intended to be run from cron.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	total := 0
	for _, dir := range []string{cfg.MapsDirectory, cfg.ArchivesDir, cfg.InputDirectory} {
		removed, err := artifacts.SweepDir(dir, cfg.ArchiveTTL, logger)
		if err != nil {
			logger.Error().Err(err).Str("dir", dir).Msg("sweep failed")
			continue
		}
		total += removed
	}
	logger.Info().Int("removed", total).Msg("sweep finished")
}
