package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// AnnounceRule configures one scheduled daily announcement.
type AnnounceRule struct {
	At        string `mapstructure:"at"` // "15:04"
	Channel   string `mapstructure:"channel"`
	Mode      string `mapstructure:"mode"`
	StartTime string `mapstructure:"start_time"`
}

type Config struct {
	Mode string `mapstructure:"mode"`
	Port int    `mapstructure:"port"`

	DataDir   string `mapstructure:"data_dir"`
	BackupDir string `mapstructure:"backup_dir"`

	Capacity int `mapstructure:"capacity"`
	BandSize int `mapstructure:"band_size"`

	GatewayURL string `mapstructure:"gateway_url"`
	APIBaseURL string `mapstructure:"api_base_url"`
	Token      string `mapstructure:"token"`

	RiotBaseURL string `mapstructure:"riot_base_url"`
	RiotAPIKey  string `mapstructure:"riot_api_key"`

	ModRoleIDs []string `mapstructure:"mod_role_ids"`
	Secret     string   `mapstructure:"secret"`

	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	Announce []AnnounceRule `mapstructure:"announce"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("backup_dir", "./data/backups")
	v.SetDefault("capacity", 40)
	v.SetDefault("band_size", 10)
	v.SetDefault("gateway_url", "wss://gateway.lolvely.gg/ws")
	v.SetDefault("api_base_url", "https://api.lolvely.gg")
	v.SetDefault("riot_base_url", "https://asia.api.riotgames.com")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Secrets come from the environment, never from the yaml file.
	if tok := os.Getenv("BLIBOT_TOKEN"); tok != "" {
		cfg.Token = tok
	}
	if key := os.Getenv("RIOT_API_KEY"); key != "" {
		cfg.RiotAPIKey = key
	}

	fmt.Printf("🧩 Mode: %s | Port: %d | Data: %s\n", cfg.Mode, cfg.Port, cfg.DataDir)
	return &cfg, nil
}
