package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	money "github.com/rezonia/afip-bill/internal/decimal"
	"github.com/rezonia/afip-bill/internal/registry"
	"github.com/rezonia/afip-bill/internal/render"
	"github.com/rezonia/afip-bill/internal/templates"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "AFIP_BILL"

// Config holds all application configuration
type Config struct {
	SalePoint      string                  `mapstructure:"sale_point"`
	Layout         string                  `mapstructure:"layout"`
	DocumentTypes  []registry.DocumentType `mapstructure:"document_types"`
	TemplatesDir   string                  `mapstructure:"templates_dir"`
	DefaultTaxRate string                  `mapstructure:"default_tax_rate"`
	Backend        BackendConfig           `mapstructure:"backend"`
	Server         ServerConfig            `mapstructure:"server"`
	Logger         LoggerConfig            `mapstructure:"logger"`
}

// BackendConfig holds PDF backend configuration
type BackendConfig struct {
	Name         string        `mapstructure:"name"`
	Path         string        `mapstructure:"path"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Zoom         float64       `mapstructure:"zoom"`
	PageSize     string        `mapstructure:"page_size"`
	MarginTop    string        `mapstructure:"margin_top"`
	MarginBottom string        `mapstructure:"margin_bottom"`
	MarginLeft   string        `mapstructure:"margin_left"`
	MarginRight  string        `mapstructure:"margin_right"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Debug        bool          `mapstructure:"debug"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from an optional file, a .env file in the working
// directory and AFIP_BILL_* environment variables, in increasing precedence.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
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

// Default returns the configuration used when nothing is set
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	opts := render.DefaultOptions()

	v.SetDefault("sale_point", "")
	v.SetDefault("layout", registry.LayoutBills)
	v.SetDefault("templates_dir", "")
	v.SetDefault("default_tax_rate", "21")

	v.SetDefault("backend.name", render.BackendWKHTMLToPDF)
	v.SetDefault("backend.path", "")
	v.SetDefault("backend.timeout", 60*time.Second)
	v.SetDefault("backend.zoom", opts.Zoom)
	v.SetDefault("backend.page_size", opts.PageSize)
	v.SetDefault("backend.margin_top", opts.MarginTop)
	v.SetDefault("backend.margin_bottom", opts.MarginBottom)
	v.SetDefault("backend.margin_left", opts.MarginLeft)
	v.SetDefault("backend.margin_right", opts.MarginRight)

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("server.debug", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stderr")
	v.SetDefault("logger.format", "console")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for _, r := range c.SalePoint {
		if r < '0' || r > '9' {
			return fmt.Errorf("sale_point %q must contain only digits", c.SalePoint)
		}
	}

	if _, err := c.Registry(); err != nil {
		return err
	}

	if _, err := c.TaxRate(); err != nil {
		return err
	}

	switch strings.ToLower(c.Backend.Name) {
	case "", render.BackendAuto, render.BackendBasic, render.BackendWKHTMLToPDF:
	default:
		return fmt.Errorf("backend.name %q is not supported", c.Backend.Name)
	}

	if c.Backend.Zoom < 0 {
		return fmt.Errorf("backend.zoom must not be negative")
	}

	for _, m := range []string{c.Backend.MarginTop, c.Backend.MarginBottom, c.Backend.MarginLeft, c.Backend.MarginRight} {
		if _, err := render.ParseLength(m); err != nil {
			return fmt.Errorf("backend margin: %w", err)
		}
	}

	return nil
}

// Registry builds the document type registry for the configured layout and
// overrides
func (c *Config) Registry() (*registry.Registry, error) {
	r, err := registry.ForLayout(c.Layout)
	if err != nil {
		return nil, err
	}
	if len(c.DocumentTypes) == 0 {
		return r, nil
	}
	return r.Merge(c.DocumentTypes)
}

// Templates returns the configured template set
func (c *Config) Templates() (*templates.Set, error) {
	if c.TemplatesDir == "" {
		return templates.Default(), nil
	}
	return templates.FromDir(c.TemplatesDir)
}

// TaxRate parses the default IVA rate
func (c *Config) TaxRate() (decimal.Decimal, error) {
	if c.DefaultTaxRate == "" {
		return decimal.NewFromInt(21), nil
	}
	rate, err := decimal.NewFromString(c.DefaultTaxRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("default_tax_rate %q: %w", c.DefaultTaxRate, err)
	}
	if !money.IsNonNegative(rate) {
		return decimal.Zero, fmt.Errorf("default_tax_rate must not be negative")
	}
	return rate, nil
}

// RenderBackend creates the configured PDF backend. logger receives the
// warning when "auto" falls back to the basic backend; it may be nil.
func (c *Config) RenderBackend(logger *zap.Logger) (render.Backend, error) {
	return render.ByName(render.Config{
		Name:    c.Backend.Name,
		Path:    c.Backend.Path,
		Timeout: c.Backend.Timeout,
		Logger:  logger,
	})
}

// RenderOptions returns the configured page layout
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Zoom:         c.Backend.Zoom,
		PageSize:     c.Backend.PageSize,
		MarginTop:    c.Backend.MarginTop,
		MarginBottom: c.Backend.MarginBottom,
		MarginLeft:   c.Backend.MarginLeft,
		MarginRight:  c.Backend.MarginRight,
	}
}
