package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/milk9111/goldrush/config"
	"github.com/milk9111/goldrush/duel"
	"github.com/milk9111/goldrush/duel/ethledger"
	"github.com/milk9111/goldrush/prefabs"
	"github.com/milk9111/goldrush/store"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug mode")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	tuningName := flag.String("tuning", prefabs.TuningFile, "tuning spec in prefabs/ (embedded copy used when absent)")
	seed := flag.Uint64("seed", 0, "seed for spawn heights (0 = random)")
	dbPath := flag.String("db", "", "results journal path (overrides GOLDRUSH_DB)")
	practice := flag.Bool("practice", false, "play without connecting to the duel contract")
	envFile := flag.String("env", ".env", "environment file to load")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		config.SetupLogging(zerolog.InfoLevel, true, os.Stderr)
		log.Fatal().Err(err).Msg("failed to load config")
	}
	level := cfg.LogLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	config.SetupLogging(level, *debug, os.Stderr)

	tuning, err := prefabs.LoadTuning(*tuningName)
	if err != nil {
		log.Fatal().Err(err).Str("tuning", *tuningName).Msg("failed to load tuning")
	}
	log.Debug().Str("tuning", *tuningName).Stringer("source", tuning.Source).Msg("tuning loaded")

	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	journal, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("failed to open results journal")
	}
	defer journal.Close()

	var ledger duel.Ledger
	if !*practice && cfg.LedgerConfigured() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		l, err := ethledger.Dial(ctx, cfg.Ledger())
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("duel contract unavailable, starting in practice mode")
		} else {
			defer l.Close()
			ledger = l
			log.Info().Str("account", l.Address()).Int64("chain", cfg.ChainID).Msg("connected to duel contract")
		}
	}

	var watcher *prefabs.TuningWatcher
	if info, err := os.Stat(prefabs.Dir); err == nil && info.IsDir() {
		watcher, err = prefabs.WatchTuning(*tuningName)
		if err != nil {
			log.Warn().Err(err).Msg("tuning hot reload disabled")
		} else {
			defer watcher.Close()
		}
	}

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	w, h := int(tuning.Playfield.Width), int(tuning.Playfield.Height)
	ebiten.SetWindowSize(w*2, h*2)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("Gold Rush Duel")

	game := NewGame(GameOptions{
		Tuning:     tuning,
		TuningName: *tuningName,
		Debug:      *debug,
		Seed:       *seed,
		Ledger:     ledger,
		Journal:    journal,
		Watcher:    watcher,
	})
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Error().Err(err).Msg("game exited")
	}
}
