package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Generator GeneratorConfig
	Exports   ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GeneratorConfig carries the default tuning for timetable generation runs.
// Request payloads may override the GA knobs within validated bounds; the
// penalty weights and daily caps only change through configuration.
type GeneratorConfig struct {
	PopulationSize   int
	MaxGenerations   int
	MutationRate     float64
	CrossoverRate    float64
	Elitism          int
	TournamentSize   int
	StagnationLimit  int
	Workers          int
	RuntimeBudget    time.Duration
	HardWeight       int
	SoftWeight       int
	LecturerDailyMax int
	ClassDailyMax    int
	TargetQuality    float64
	SummaryCacheTTL  time.Duration
	QueueWorkers     int
	QueueBufferSize  int
}

// ExportsConfig governs the timetable export endpoints.
type ExportsConfig struct {
	Enabled bool
	Title   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Generator = GeneratorConfig{
		PopulationSize:   v.GetInt("GENERATOR_POPULATION_SIZE"),
		MaxGenerations:   v.GetInt("GENERATOR_MAX_GENERATIONS"),
		MutationRate:     v.GetFloat64("GENERATOR_MUTATION_RATE"),
		CrossoverRate:    v.GetFloat64("GENERATOR_CROSSOVER_RATE"),
		Elitism:          v.GetInt("GENERATOR_ELITISM"),
		TournamentSize:   v.GetInt("GENERATOR_TOURNAMENT_SIZE"),
		StagnationLimit:  v.GetInt("GENERATOR_STAGNATION_LIMIT"),
		Workers:          v.GetInt("GENERATOR_WORKERS"),
		RuntimeBudget:    parseDuration(v.GetString("GENERATOR_RUNTIME_BUDGET"), 60*time.Second),
		HardWeight:       v.GetInt("GENERATOR_HARD_WEIGHT"),
		SoftWeight:       v.GetInt("GENERATOR_SOFT_WEIGHT"),
		LecturerDailyMax: v.GetInt("GENERATOR_LECTURER_DAILY_MAX"),
		ClassDailyMax:    v.GetInt("GENERATOR_CLASS_DAILY_MAX"),
		TargetQuality:    v.GetFloat64("GENERATOR_TARGET_QUALITY"),
		SummaryCacheTTL:  parseDuration(v.GetString("GENERATOR_SUMMARY_CACHE_TTL"), 10*time.Minute),
		QueueWorkers:     v.GetInt("GENERATOR_QUEUE_WORKERS"),
		QueueBufferSize:  v.GetInt("GENERATOR_QUEUE_BUFFER"),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
		Title:   v.GetString("EXPORTS_TITLE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "uni_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GENERATOR_POPULATION_SIZE", 100)
	v.SetDefault("GENERATOR_MAX_GENERATIONS", 500)
	v.SetDefault("GENERATOR_MUTATION_RATE", 0.05)
	v.SetDefault("GENERATOR_CROSSOVER_RATE", 0.85)
	v.SetDefault("GENERATOR_ELITISM", 2)
	v.SetDefault("GENERATOR_TOURNAMENT_SIZE", 3)
	v.SetDefault("GENERATOR_STAGNATION_LIMIT", 60)
	v.SetDefault("GENERATOR_WORKERS", 4)
	v.SetDefault("GENERATOR_RUNTIME_BUDGET", "60s")
	v.SetDefault("GENERATOR_HARD_WEIGHT", 1000)
	v.SetDefault("GENERATOR_SOFT_WEIGHT", 10)
	v.SetDefault("GENERATOR_LECTURER_DAILY_MAX", 4)
	v.SetDefault("GENERATOR_CLASS_DAILY_MAX", 3)
	v.SetDefault("GENERATOR_TARGET_QUALITY", 0)
	v.SetDefault("GENERATOR_SUMMARY_CACHE_TTL", "10m")
	v.SetDefault("GENERATOR_QUEUE_WORKERS", 1)
	v.SetDefault("GENERATOR_QUEUE_BUFFER", 8)

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_TITLE", "University Timetable")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
