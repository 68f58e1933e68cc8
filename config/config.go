// Package config loads the server settings from holdem.yaml, HOLDEM_*
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lazharichir/holdem/domain"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "HOLDEM"
	FileName  = "holdem"
)

// Config is the full server configuration.
type Config struct {
	Listen     string `mapstructure:"listen"`
	LogLevel   string `mapstructure:"log_level"`
	LedgerPath string `mapstructure:"ledger_path"`
	Table      Table  `mapstructure:"table"`
}

// Table holds the defaults of newly created tables and the pacing of the
// table loop.
type Table struct {
	SmallBlind    int           `mapstructure:"small_blind"`
	BigBlind      int           `mapstructure:"big_blind"`
	BuyIn         int           `mapstructure:"buy_in"`
	MaxPlayers    int           `mapstructure:"max_players"`
	NextHandDelay time.Duration `mapstructure:"next_hand_delay"`
	RunoutDelay   time.Duration `mapstructure:"runout_delay"`
	BotDelay      time.Duration `mapstructure:"bot_delay"`
	EmptyTTL      time.Duration `mapstructure:"empty_ttl"`
}

// Rules converts the table section into engine rules.
func (t Table) Rules() domain.TableRules {
	return domain.TableRules{
		SmallBlind: t.SmallBlind,
		BigBlind:   t.BigBlind,
		BuyIn:      t.BuyIn,
		MaxPlayers: t.MaxPlayers,
	}
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	rules := domain.DefaultRules()

	v.SetDefault("listen", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("ledger_path", "data/holdem.db")
	v.SetDefault("table.small_blind", rules.SmallBlind)
	v.SetDefault("table.big_blind", rules.BigBlind)
	v.SetDefault("table.buy_in", rules.BuyIn)
	v.SetDefault("table.max_players", rules.MaxPlayers)
	v.SetDefault("table.next_hand_delay", 5*time.Second)
	v.SetDefault("table.runout_delay", 1500*time.Millisecond)
	v.SetDefault("table.bot_delay", time.Second)
	v.SetDefault("table.empty_ttl", 10*time.Minute)
}

// Load reads the configuration. An explicit file must exist; without one
// holdem.yaml is looked up in the working directory and is optional.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is empty")
	}
	if err := c.Table.Rules().Validate(); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if c.Table.NextHandDelay < 0 || c.Table.RunoutDelay < 0 || c.Table.BotDelay < 0 || c.Table.EmptyTTL < 0 {
		return errors.New("table delays cannot be negative")
	}
	return nil
}
