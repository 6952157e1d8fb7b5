// Package config reads the environment (optionally seeded from .env files)
// and sets up logging.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/milk9111/goldrush/duel/ethledger"
)

const (
	EnvRPCURL       = "GOLDRUSH_RPC_URL"
	EnvChainID      = "GOLDRUSH_CHAIN_ID"
	EnvPrivateKey   = "GOLDRUSH_PRIVATE_KEY"
	EnvDuelAddress  = "GOLDRUSH_DUEL_ADDRESS"
	EnvTokenAddress = "GOLDRUSH_TOKEN_ADDRESS"
	EnvCallTimeout  = "GOLDRUSH_CALL_TIMEOUT"
	EnvDB           = "GOLDRUSH_DB"
	EnvLogLevel     = "LOG_LEVEL"
)

const defaultCallTimeout = 2 * time.Minute

type Config struct {
	RPCURL       string
	ChainID      int64
	PrivateKey   string
	DuelAddress  string
	TokenAddress string
	CallTimeout  time.Duration
	DBPath       string
	LogLevel     zerolog.Level
}

// Load reads .env files into the environment, without overriding variables
// that are already set, and then builds a Config. Missing files are skipped.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
		log.Debug().Str("file", f).Msg("loaded environment file")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment.
func FromEnv() (Config, error) {
	c := Config{
		RPCURL:       os.Getenv(EnvRPCURL),
		PrivateKey:   os.Getenv(EnvPrivateKey),
		DuelAddress:  os.Getenv(EnvDuelAddress),
		TokenAddress: os.Getenv(EnvTokenAddress),
		DBPath:       getEnv(EnvDB, defaultDBPath()),
		ChainID:      ethledger.DefaultChainID,
		CallTimeout:  defaultCallTimeout,
		LogLevel:     zerolog.InfoLevel,
	}

	if v := os.Getenv(EnvChainID); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return Config{}, fmt.Errorf("config: %s=%q is not a chain id", EnvChainID, v)
		}
		c.ChainID = id
	}
	if v := os.Getenv(EnvCallTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvCallTimeout, err)
		}
		c.CallTimeout = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		lvl, err := zerolog.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvLogLevel, err)
		}
		c.LogLevel = lvl
	}
	return c, nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "goldrush.db"
	}
	return filepath.Join(dir, "goldrush", "results.db")
}

// LedgerConfigured reports whether enough is set to talk to the duel contract.
func (c Config) LedgerConfigured() bool {
	return c.RPCURL != "" && c.PrivateKey != "" && c.DuelAddress != ""
}

func (c Config) Ledger() ethledger.Config {
	return ethledger.Config{
		RPCURL:       c.RPCURL,
		ChainID:      c.ChainID,
		PrivateKey:   c.PrivateKey,
		DuelAddress:  c.DuelAddress,
		TokenAddress: c.TokenAddress,
		Timeout:      c.CallTimeout,
	}
}

// SetupLogging sets the global level and, when console is true, switches the
// global logger to human-readable output on w.
func SetupLogging(level zerolog.Level, console bool, w io.Writer) {
	zerolog.SetGlobalLevel(level)
	if w == nil {
		w = os.Stderr
	}
	if console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
