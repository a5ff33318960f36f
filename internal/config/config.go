package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Input datasets.
	RoseCSV    string
	HistCSV    string
	PanelsFile string
	Statistics []domain.Statistic

	// RefreshInterval is how often the dashboard is rebuilt from the inputs.
	// Zero builds once.
	RefreshInterval time.Duration

	// Spec publishing.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSpecTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	refresh, err := time.ParseDuration(sharedcfg.EnvOrDefault("REFRESH_INTERVAL", "5m"))
	if err != nil || refresh < 0 {
		return nil, errors.New("invalid REFRESH_INTERVAL")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		RoseCSV:         sharedcfg.EnvOrDefault("ROSE_CSV", "4locs_storms_rose_binned.csv"),
		HistCSV:         sharedcfg.EnvOrDefault("HIST_CSV", "4locs_storms_hists_binned.csv"),
		PanelsFile:      os.Getenv("PANELS_FILE"),
		RefreshInterval: refresh,
		KafkaEnabled:    os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSpecTopic:  sharedcfg.EnvOrDefault("KAFKA_SPEC_TOPIC", "dashboard-specs"),
	}

	cfg.Statistics = domain.DefaultStatistics()
	if cfg.PanelsFile != "" {
		stats, err := LoadPanels(cfg.PanelsFile)
		if err != nil {
			return nil, err
		}
		cfg.Statistics = stats
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSpecTopic == "" {
			return nil, errors.New("KAFKA_SPEC_TOPIC is required")
		}
	}

	return cfg, nil
}

type panelsFile struct {
	Panels []struct {
		Name   string    `yaml:"name"`
		Title  string    `yaml:"title"`
		Domain []float64 `yaml:"domain"`
	} `yaml:"panels"`
}

// LoadPanels reads the histogram statistics from a YAML file. Panels keep
// file order.
//
//	panels:
//	  - name: fase
//	    title: surge peak w.r.t. high tide (h)
//	    domain: [-6, 6]
func LoadPanels(path string) ([]domain.Statistic, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read PANELS_FILE: %w", err)
	}
	return ParsePanels(b)
}

// ParsePanels decodes a panels document. Every panel needs a name and a
// valid two-element domain.
func ParsePanels(b []byte) ([]domain.Statistic, error) {
	var f panelsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse panels: %w", err)
	}
	if len(f.Panels) == 0 {
		return nil, errors.New("panels file lists no panels")
	}

	stats := make([]domain.Statistic, 0, len(f.Panels))
	seen := map[string]bool{}
	for i, p := range f.Panels {
		if p.Name == "" {
			return nil, fmt.Errorf("panel %d: name is required", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("panel %q listed twice", p.Name)
		}
		seen[p.Name] = true
		if len(p.Domain) != 2 {
			return nil, fmt.Errorf("panel %q: domain must have two bounds", p.Name)
		}
		d := domain.Domain{Min: p.Domain[0], Max: p.Domain[1]}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("panel %q: %w", p.Name, err)
		}
		title := p.Title
		if title == "" {
			title = p.Name
		}
		stats = append(stats, domain.Statistic{Name: p.Name, Domain: d, Title: title})
	}
	return stats, nil
}
