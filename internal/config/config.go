package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // dev | prod

	DataDir         string `yaml:"data_dir"`
	ModalitiesPath  string `yaml:"modalities_path"`
	RawSurveyPath   string `yaml:"raw_survey_path"`
	SurveyPath      string `yaml:"survey_path"` // normalized table
	CommunesPath    string `yaml:"communes_path"`
	RegionsPath     string `yaml:"regions_path"`
	DepartmentsPath string `yaml:"departments_path"`

	DBPath    string `yaml:"db_path"`
	JWTSecret string `yaml:"jwt_secret"`

	StatsTTL    time.Duration `yaml:"stats_ttl"`
	RateLimit   float64       `yaml:"rate_limit"` // requests per second per client
	RateBurst   int           `yaml:"rate_burst"`
	CORSOrigins []string      `yaml:"cors_origins"`

	GeocoderEnabled bool          `yaml:"geocoder_enabled"`
	GeocoderURL     string        `yaml:"geocoder_url"`
	GeocoderTimeout time.Duration `yaml:"geocoder_timeout"`

	NormalizeOnStartup bool `yaml:"normalize_on_startup"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Port:            ":8080",
		Mode:            "dev",
		DataDir:         "./data",
		DBPath:          "./data/mobility.db",
		JWTSecret:       "your-secret-key-change-in-production",
		StatsTTL:        5 * time.Minute,
		RateLimit:       20,
		RateBurst:       40,
		CORSOrigins:     []string{"*"},
		GeocoderURL:     "https://geo.api.gouv.fr",
		GeocoderTimeout: 2 * time.Second,
	}
}

// Load 加载配置: .env, then the YAML file named by CONFIG_FILE, then the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	cfg.resolvePaths()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.Mode, "APP_MODE")
	setString(&c.DataDir, "DATA_DIR")
	setString(&c.ModalitiesPath, "MODALITIES_PATH")
	setString(&c.RawSurveyPath, "RAW_SURVEY_PATH")
	setString(&c.SurveyPath, "SURVEY_PATH")
	setString(&c.CommunesPath, "COMMUNES_PATH")
	setString(&c.RegionsPath, "REGIONS_PATH")
	setString(&c.DepartmentsPath, "DEPARTMENTS_PATH")
	setString(&c.DBPath, "DB_PATH")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.GeocoderURL, "GEOCODER_URL")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}

	var err error
	if c.StatsTTL, err = envDuration("STATS_TTL", c.StatsTTL); err != nil {
		return err
	}
	if c.GeocoderTimeout, err = envDuration("GEOCODER_TIMEOUT", c.GeocoderTimeout); err != nil {
		return err
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if c.RateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("invalid RATE_LIMIT: %w", err)
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if c.RateBurst, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid RATE_BURST: %w", err)
		}
	}
	if c.GeocoderEnabled, err = envBool("GEOCODER_ENABLED", c.GeocoderEnabled); err != nil {
		return err
	}
	if c.NormalizeOnStartup, err = envBool("NORMALIZE_ON_STARTUP", c.NormalizeOnStartup); err != nil {
		return err
	}
	return nil
}

// resolvePaths fills the data file paths left empty from DataDir
func (c *Config) resolvePaths() {
	defaults := []struct {
		field *string
		name  string
	}{
		{&c.ModalitiesPath, "varmod_mobpro.csv"},
		{&c.RawSurveyPath, "mobpro.csv"},
		{&c.SurveyPath, "mobpro_normalized.csv"},
		{&c.CommunesPath, "communes.csv"},
		{&c.RegionsPath, "regions.csv"},
		{&c.DepartmentsPath, "departements.csv"},
	}
	for _, d := range defaults {
		if *d.field == "" {
			*d.field = filepath.Join(c.DataDir, d.name)
		}
	}
}

// IsProduction reports whether the server runs in release mode
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Mode) {
	case "prod", "production", "release":
		return true
	}
	return false
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
