package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cropsense/crop-analysis/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// ReportDir enables on-disk PDF/XLSX reports when non-empty.
	ReportDir string

	// Analysis configuration.
	MaxCloudFraction float64
	Detector         domain.DetectorConfig
	Alerts           domain.AlertThresholds

	// Baseline archive configuration.
	BaselineURL       string
	BaselineEnabled   bool
	BaselineTimeout   time.Duration
	BaselineCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	flushInterval, err := durationEnv("BATCH_FLUSH_INTERVAL", 2*time.Second)
	if err != nil {
		return nil, err
	}
	batchSize, err := intEnv("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}
	cacheSize, err := intEnv("BASELINE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	baselineTimeout, err := durationEnv("BASELINE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	baselineURL := os.Getenv("BASELINE_URL")
	baselineEnabled := baselineURL != ""
	if v := os.Getenv("BASELINE_ENABLED"); v != "" {
		baselineEnabled = v == "true"
	}

	detector, err := loadDetector()
	if err != nil {
		return nil, err
	}
	alerts, err := loadAlerts()
	if err != nil {
		return nil, err
	}
	maxCloud, err := floatEnv("MAX_CLOUD_FRACTION", 0.8)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       splitBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "field-observation-snapshots"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "field-analysis-reports"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "crop-analysis"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		ReportDir:          os.Getenv("REPORT_DIR"),
		MaxCloudFraction:   maxCloud,
		Detector:           detector,
		Alerts:             alerts,
		BaselineURL:        baselineURL,
		BaselineEnabled:    baselineEnabled,
		BaselineTimeout:    baselineTimeout,
		BaselineCacheSize:  cacheSize,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.BatchSize <= 0 {
		return nil, errors.New("BATCH_SIZE must be positive")
	}
	if cfg.MaxCloudFraction < 0 || cfg.MaxCloudFraction > 1 {
		return nil, errors.New("MAX_CLOUD_FRACTION must be within [0, 1]")
	}
	if err := cfg.Detector.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Alerts.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaselineEnabled && cfg.BaselineURL == "" {
		return nil, errors.New("BASELINE_ENABLED is true but BASELINE_URL is not set")
	}

	return cfg, nil
}

func loadDetector() (domain.DetectorConfig, error) {
	d := domain.DefaultDetectorConfig()
	var err error
	if d.Threshold, err = floatEnv("SEASON_THRESHOLD", d.Threshold); err != nil {
		return d, err
	}
	if d.SharpDrop, err = floatEnv("SHARP_DROP", d.SharpDrop); err != nil {
		return d, err
	}
	if d.SharpDropDays, err = intEnv("SHARP_DROP_DAYS", d.SharpDropDays); err != nil {
		return d, err
	}
	if d.MinDuration, err = intEnv("MIN_SEASON_DURATION", d.MinDuration); err != nil {
		return d, err
	}
	if d.SmoothWindow, err = intEnv("SMOOTH_WINDOW", d.SmoothWindow); err != nil {
		return d, err
	}
	if v := os.Getenv("CLOSE_UNCLOSED"); v != "" {
		d.CloseUnclosed = v == "true"
	}
	return d, nil
}

func loadAlerts() (domain.AlertThresholds, error) {
	t := domain.DefaultAlertThresholds()
	var err error
	if t.WaterStressTemp, err = floatEnv("ALERT_WATER_STRESS_TEMP", t.WaterStressTemp); err != nil {
		return t, err
	}
	if t.WaterStressIndex, err = floatEnv("ALERT_WATER_STRESS_INDEX", t.WaterStressIndex); err != nil {
		return t, err
	}
	if t.HeatAnomaly, err = floatEnv("ALERT_HEAT_ANOMALY", t.HeatAnomaly); err != nil {
		return t, err
	}
	if t.DroughtRain7d, err = floatEnv("ALERT_DROUGHT_RAIN_7D", t.DroughtRain7d); err != nil {
		return t, err
	}
	if t.DroughtRain30d, err = floatEnv("ALERT_DROUGHT_RAIN_30D", t.DroughtRain30d); err != nil {
		return t, err
	}
	if t.FloodCoverage, err = floatEnv("ALERT_FLOOD_COVERAGE", t.FloodCoverage); err != nil {
		return t, err
	}
	if t.DrySpellRain7d, err = floatEnv("ALERT_DRY_SPELL_RAIN_7D", t.DrySpellRain7d); err != nil {
		return t, err
	}
	if t.SoilMoisture, err = floatEnv("ALERT_SOIL_MOISTURE", t.SoilMoisture); err != nil {
		return t, err
	}
	if t.PoorHealthIndex, err = floatEnv("ALERT_POOR_HEALTH_INDEX", t.PoorHealthIndex); err != nil {
		return t, err
	}
	if t.CloudFraction, err = floatEnv("ALERT_CLOUD_FRACTION", t.CloudFraction); err != nil {
		return t, err
	}
	return t, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func intEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
