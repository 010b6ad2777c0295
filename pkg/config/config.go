package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Debug bool
	Port  int

	Sources        []Source
	UpdateInterval time.Duration
	Weeks          int // 1 = current week, 2 = current and next week

	MenuBaseURL  string
	Renderer     string // chrome or static
	ChromeBin    string
	ReadyTimeout time.Duration

	SupervisorToken string
	HassURL         string

	Store     string // memory, redis or postgres
	RedisAddr string
	RedisDB   int
	DBString  string

	WeekdayNames   []string
	NextWeekLabels []string
}

// Source is one configured school
type Source struct {
	Name string `json:"name" yaml:"name"`
	Slug string `json:"slug" yaml:"slug"`
}

const (
	RendererChrome = "chrome"
	RendererStatic = "static"

	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

func NewConfig() *Config {
	sources := parseSources(getStringEnvDefault("SCHOOLS", "[]"))
	if path := getStringEnvDefault("SCHOOLS_FILE", ""); path != "" {
		fileSources, err := loadSourcesFile(path)
		if err != nil {
			fmt.Printf("Could not load %s: %v\n", path, err)
		}
		sources = append(sources, fileSources...)
	}

	return &Config{
		Debug: getBoolEnvDefault("DEBUG", false),
		Port:  getIntEnvDefault("PORT", 8080),

		Sources:        sources,
		UpdateInterval: getSecondsEnvDefault("UPDATE_INTERVAL", 3600),
		Weeks:          clampWeeks(getIntEnvDefault("N_WEEKS", 1)),

		MenuBaseURL:  strings.TrimSuffix(getStringEnvDefault("MENU_BASE_URL", "https://skolmaten.se"), "/"),
		Renderer:     getStringEnvDefault("RENDERER", RendererChrome),
		ChromeBin:    getStringEnvDefault("CHROME_BIN", ""),
		ReadyTimeout: getSecondsEnvDefault("READY_TIMEOUT", 10),

		SupervisorToken: getStringEnvDefault("SUPERVISOR_TOKEN", ""),
		HassURL:         strings.TrimSuffix(getStringEnvDefault("HASS_URL", "http://supervisor/core"), "/"),

		Store:     getStringEnvDefault("STORE", StoreMemory),
		RedisAddr: getStringEnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getIntEnvDefault("REDIS_DB", 0),
		DBString:  getStringEnvDefault("DB_STRING", "host=localhost port=5432 user=postgres password=admin dbname=skolmaten sslmode=disable"),

		WeekdayNames:   parseList(getStringEnvDefault("WEEKDAY_NAMES", "")),
		NextWeekLabels: parseList(getStringEnvDefault("NEXT_WEEK_LABELS", "")),
	}
}

// IncludeNextWeek reports whether the next week should be fetched as well
func (c *Config) IncludeNextWeek() bool {
	return c.Weeks >= 2
}

// parseSources reads a JSON list of {"name": ..., "slug": ...} records
// invalid records are skipped
func parseSources(data string) []Source {
	var records []map[string]interface{}
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		fmt.Printf("Could not parse SCHOOLS: %v\n", err)
		return []Source{}
	}

	sources := make([]Source, 0, len(records))
	for _, record := range records {
		name, okName := record["name"].(string)
		slug, okSlug := record["slug"].(string)
		if !okName || !okSlug {
			fmt.Printf("Invalid school configuration: %v\n", record)
			continue
		}
		sources = append(sources, Source{Name: name, Slug: strings.TrimSpace(slug)})
	}

	return sources
}

func loadSourcesFile(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read sources file: %w", err)
	}

	var file struct {
		Schools []Source `yaml:"schools"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("could not parse sources file: %w", err)
	}

	return file.Schools, nil
}

func parseList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func clampWeeks(n int) int {
	if n < 1 {
		return 1
	}
	if n > 2 {
		return 2
	}
	return n
}

func getBoolEnvDefault(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}

	fmt.Printf("Using default value for %s\n", key)
	return defaultValue
}

func getStringEnvDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	fmt.Printf("Using default value for %s\n", key)
	return defaultValue
}

func getIntEnvDefault(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}

	fmt.Printf("Using default value for %s\n", key)
	return defaultValue
}

func getSecondsEnvDefault(key string, defaultValue int) time.Duration {
	seconds := getIntEnvDefault(key, defaultValue)
	if seconds <= 0 {
		fmt.Printf("Invalid value for %s, using %d\n", key, defaultValue)
		seconds = defaultValue
	}

	return time.Duration(seconds) * time.Second
}
