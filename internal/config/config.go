package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/bossai/internal/ai"
	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/world"
)

// EnvConfigPath overrides the config file path.
const EnvConfigPath = "BOSSAI_CONFIG"

// DefaultConfigPath is used when neither a flag nor EnvConfigPath is set.
const DefaultConfigPath = "config/bossserver.yaml"

// BossServer holds all configuration for the boss server.
type BossServer struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	Database DatabaseConfig `yaml:"database"`
	Observer ObserverConfig `yaml:"observer"`
	Journal  JournalConfig  `yaml:"journal"`

	// SaveInterval is how often boss state is flushed to the store.
	SaveInterval time.Duration `yaml:"save_interval"`

	Arena    world.Config      `yaml:"arena"`
	AI       ai.Tuning         `yaml:"ai"`
	Director ai.DirectorConfig `yaml:"director"`

	Bosses  []BossEntry   `yaml:"bosses"`
	Players []PlayerEntry `yaml:"players"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// ObserverConfig configures the websocket stream and admin HTTP endpoints.
type ObserverConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`

	// AllowRemote lets non-loopback clients connect. State-changing routes
	// then require the admin credential.
	AllowRemote bool `yaml:"allow_remote"`

	AdminUser string `yaml:"admin_user"`

	// AdminPasswordHash is a bcrypt hash (bossserver -hash-password).
	AdminPasswordHash string `yaml:"admin_password_hash"`
}

// JournalConfig configures the compressed transition journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	// Buffer is the number of events queued before new ones are dropped.
	Buffer int `yaml:"buffer"`
}

// BossEntry describes one boss spawned at startup.
type BossEntry struct {
	ID        uint32     `yaml:"id"` // 0 allocates one
	Name      string     `yaml:"name"`
	Position  model.Vec3 `yaml:"position"`
	MaxHealth float64    `yaml:"max_health"`
	// Seed fixes the boss's random source; 0 picks a random seed.
	Seed uint64 `yaml:"seed"`
}

// PlayerEntry describes a player placed in the arena at startup.
type PlayerEntry struct {
	Name     string     `yaml:"name"`
	Position model.Vec3 `yaml:"position"`
}

// DefaultBossServer returns BossServer config with sensible defaults.
func DefaultBossServer() BossServer {
	return BossServer{
		LogLevel: "info",
		Database: DatabaseConfig{
			Enabled:  false,
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "bossai",
			Password: "bossai",
			DBName:   "bossai",
			SSLMode:  "disable",
		},
		Observer: ObserverConfig{
			Enabled:   true,
			Addr:      "127.0.0.1:8090",
			AdminUser: "admin",
		},
		Journal: JournalConfig{
			Enabled: false,
			Dir:     "data/journal",
			Buffer:  1024,
		},
		SaveInterval: 5 * time.Minute,
		Arena:        world.DefaultConfig(),
		AI:           ai.DefaultTuning(),
		Director:     ai.DefaultDirectorConfig(),
		Bosses: []BossEntry{
			{
				ID:        0,
				Name:      "Snorlax",
				MaxHealth: 300,
			},
		},
	}
}

// Validate checks the parts of the config the server cannot start without.
func (c BossServer) Validate() error {
	var errs []error
	if err := c.AI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ai: %w", err))
	}
	if err := c.Director.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.SaveInterval <= 0 {
		errs = append(errs, fmt.Errorf("save_interval must be positive, got %s", c.SaveInterval))
	}
	if c.Observer.Enabled && c.Observer.Addr == "" {
		errs = append(errs, errors.New("observer.addr is empty"))
	}
	if c.Observer.Enabled && c.Observer.AllowRemote {
		if c.Observer.AdminUser == "" || c.Observer.AdminPasswordHash == "" {
			errs = append(errs, errors.New("observer.allow_remote requires admin_user and admin_password_hash"))
		}
	}
	if c.Journal.Enabled && c.Journal.Dir == "" {
		errs = append(errs, errors.New("journal.dir is empty"))
	}
	if c.Arena.Gravity <= 0 {
		errs = append(errs, fmt.Errorf("arena.gravity must be positive, got %g", c.Arena.Gravity))
	}
	seen := make(map[uint32]bool)
	for i, b := range c.Bosses {
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("bosses[%d]: name is empty", i))
		}
		if b.MaxHealth <= 0 {
			errs = append(errs, fmt.Errorf("bosses[%d]: max_health must be positive", i))
		}
		if b.ID != 0 {
			if seen[b.ID] {
				errs = append(errs, fmt.Errorf("bosses[%d]: duplicate id %d", i, b.ID))
			}
			seen[b.ID] = true
		}
	}
	return errors.Join(errs...)
}

// LoadBossServer loads boss server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadBossServer(path string) (BossServer, error) {
	cfg := DefaultBossServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// ResolvePath picks the config path: explicit flag value, then
// EnvConfigPath, then DefaultConfigPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath
}
