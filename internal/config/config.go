package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/leave-approval/pkg/utils"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. LEAVE_SERVER_PORT
const EnvPrefix = "LEAVE"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Logger    LoggerConfig     `mapstructure:"logger"`
	Workflow  WorkflowConfig   `mapstructure:"workflow"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
	Employees []EmployeeConfig `mapstructure:"employees"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// WorkflowConfig holds approval chain and visibility settings.
// Hierarchy and HierarchyFile are alternatives: the file wins when both are set,
// and the built-in table is used when neither is.
type WorkflowConfig struct {
	Hierarchy           map[string][]string `mapstructure:"hierarchy"`
	HierarchyFile       string              `mapstructure:"hierarchy_file"`
	Visibility          map[string][]string `mapstructure:"visibility"`
	AllVisibleRoles     []string            `mapstructure:"all_visible_roles"`
	OverrideRoles       []string            `mapstructure:"override_roles"`
	AllowStepRedecision bool                `mapstructure:"allow_step_redecision"`
	Holidays            []string            `mapstructure:"holidays"` // YYYY-MM-DD
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// EmployeeConfig seeds one directory entry at startup
type EmployeeConfig struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
	Role string `mapstructure:"role"`
}

// Load loads configuration from file and environment variables.
// An empty configPath skips the file and uses defaults plus environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/leave.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Workflow defaults
	v.SetDefault("workflow.hierarchy_file", "")
	v.SetDefault("workflow.all_visible_roles", []string{"rrhh", "gerente_rrhh", "director_rrhh", "admin"})
	v.SetDefault("workflow.override_roles", []string{"rrhh", "gerente_rrhh", "director_rrhh", "admin"})
	v.SetDefault("workflow.allow_step_redecision", false)
	v.SetDefault("workflow.holidays", []string{})

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// bindEnvVars binds the overrides operators set most often
func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		"server.port",
		"database.path",
		"database.busy_timeout",
		"logger.level",
		"logger.format",
		"workflow.hierarchy_file",
		"workflow.override_roles",
		"workflow.allow_step_redecision",
		"workflow.holidays",
		"metrics.enabled",
	}
	var errs []error
	for _, key := range keys {
		errs = append(errs, v.BindEnv(key))
	}
	return errors.Join(errs...)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout must not be negative")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	if _, err := utils.ParseDates(c.Workflow.Holidays); err != nil {
		return fmt.Errorf("workflow.holidays: %w", err)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	for i, emp := range c.Employees {
		if strings.TrimSpace(emp.ID) == "" {
			return fmt.Errorf("employees[%d].id is required", i)
		}
	}

	return nil
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
