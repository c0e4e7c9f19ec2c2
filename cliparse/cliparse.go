// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Defaults applied when neither a flag nor the environment sets a value
const (
	DefaultPort           = 3318
	DefaultNumSeats       = 2
	DefaultProposalPeriod = 259200 * time.Second
	DefaultEnvFile        = ".env"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	CallerKeySalt string

	// Initial ledger configuration, used only on first start
	OwnerAddress   string
	NumSeats       uint64
	ProposalPeriod time.Duration

	Eligibility string
	EnvFile     string

	// IssueKey, when set, asks for the caller key of this address instead
	// of starting the server
	IssueKey string
}

// Owner returns the parsed owner address, the null address when unset
func (c Config) Owner() common.Address {
	if c.OwnerAddress == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.OwnerAddress)
}

// ParseFlags parses flags, loads the env file and falls back to environment
// variables for anything not given on the command line
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var periodSeconds int64

	fs := pflag.NewFlagSet("council-dilution", pflag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVarP(&cfg.Port, "port", "p", 0, "Server port")
	fs.StringVarP(&cfg.DatabaseURL, "database", "d", "", "Database URL")
	fs.StringVarP(&cfg.DatabaseType, "db-type", "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.CallerKeySalt, "caller-salt", "", "Caller key salt (prefer env)")

	// Ledger bootstrap
	fs.StringVar(&cfg.OwnerAddress, "owner", "", "Initial owner address")
	fs.Uint64Var(&cfg.NumSeats, "seats", 0, "Initial number of council seats")
	fs.Int64Var(&periodSeconds, "proposal-period", 0, "Initial proposal period in seconds")
	fs.StringVar(&cfg.Eligibility, "eligibility", "", "Dilution eligibility mode (latest or pinned)")

	fs.StringVar(&cfg.EnvFile, "env-file", "", "Environment file to load")
	fs.StringVar(&cfg.IssueKey, "issue-key", "", "Print the caller key for an address and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// An explicit env file must exist; the default one is optional
	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", cfg.EnvFile, err)
		}
	} else if _, err := os.Stat(DefaultEnvFile); err == nil {
		if err := godotenv.Load(DefaultEnvFile); err != nil {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", DefaultEnvFile, err)
		}
	}

	// Secrets - MUST be provided
	if cfg.CallerKeySalt == "" {
		cfg.CallerKeySalt = os.Getenv("CALLER_KEY_SALT")
	}
	if cfg.CallerKeySalt == "" {
		return Config{}, errors.New("CALLER_KEY_SALT required")
	}

	if cfg.IssueKey != "" {
		if !common.IsHexAddress(cfg.IssueKey) {
			return Config{}, fmt.Errorf("invalid address for --issue-key: %q", cfg.IssueKey)
		}
		return cfg, nil
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}

	if cfg.OwnerAddress == "" {
		cfg.OwnerAddress = os.Getenv("OWNER_ADDRESS")
	}
	if cfg.OwnerAddress != "" && !common.IsHexAddress(cfg.OwnerAddress) {
		return Config{}, fmt.Errorf("invalid owner address %q", cfg.OwnerAddress)
	}

	if cfg.NumSeats == 0 {
		if s := os.Getenv("COUNCIL_SEATS"); s != "" {
			seats, err := strconv.ParseUint(s, 10, 64)
			if err != nil || seats == 0 {
				return Config{}, errors.New("invalid COUNCIL_SEATS env variable")
			}
			cfg.NumSeats = seats
		} else {
			cfg.NumSeats = DefaultNumSeats
		}
	}

	if periodSeconds < 0 {
		return Config{}, errors.New("proposal period must be positive")
	}
	if periodSeconds == 0 {
		if s := os.Getenv("PROPOSAL_PERIOD"); s != "" {
			secs, err := strconv.ParseInt(s, 10, 64)
			if err != nil || secs <= 0 {
				return Config{}, errors.New("invalid PROPOSAL_PERIOD env variable")
			}
			periodSeconds = secs
		}
	}
	if periodSeconds > 0 {
		cfg.ProposalPeriod = time.Duration(periodSeconds) * time.Second
	} else {
		cfg.ProposalPeriod = DefaultProposalPeriod
	}

	if cfg.Eligibility == "" {
		cfg.Eligibility = os.Getenv("ELIGIBILITY_MODE")
	}
	switch cfg.Eligibility {
	case "":
		cfg.Eligibility = "latest"
	case "latest", "pinned":
	default:
		return Config{}, fmt.Errorf("invalid eligibility mode %q (use latest or pinned)", cfg.Eligibility)
	}

	return cfg, nil
}
