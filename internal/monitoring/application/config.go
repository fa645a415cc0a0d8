package application

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	monitoring "guardops/internal/monitoring/domain"
)

// Config defines monitoring engine tuning.
type Config struct {
	Timezone               string         `yaml:"timezone"`
	UrgentThresholdMinutes int            `yaml:"urgent_threshold_minutes"`
	Schedule               ScheduleConfig `yaml:"schedule"`
}

// ScheduleConfig defines the daily materialize job.
type ScheduleConfig struct {
	DailyAt string   `yaml:"daily_at"`
	Sites   []string `yaml:"sites"`
}

// LoadConfig loads engine config from yaml or env. All sites share one
// civil timezone; making it per-site would move the setting onto
// MonitoringConfig and rebucket per site.
func LoadConfig() (Config, error) {
	cfg := Config{
		Timezone:               getenvDefault("MONITORING_TIMEZONE", "UTC"),
		UrgentThresholdMinutes: getenvIntDefault("MONITORING_URGENT_THRESHOLD_MINUTES", 30),
	}

	if path := os.Getenv("MONITORING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Schedule.DailyAt == "" {
		cfg.Schedule.DailyAt = getenvDefault("MONITORING_DAILY_AT", "11:30")
	}
	if len(cfg.Schedule.Sites) == 0 {
		cfg.Schedule.Sites = splitCSV(getenvDefault("MONITORING_SITES", ""))
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	return cfg, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// UrgentThreshold returns the urgent overlay threshold.
func (c Config) UrgentThreshold() time.Duration {
	if c.UrgentThresholdMinutes <= 0 {
		return monitoring.DefaultUrgentThreshold
	}
	return time.Duration(c.UrgentThresholdMinutes) * time.Minute
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
