package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "4locs_storms_rose_binned.csv", cfg.RoseCSV)
	assert.Equal(t, "4locs_storms_hists_binned.csv", cfg.HistCSV)
	assert.Empty(t, cfg.PanelsFile)
	assert.Equal(t, domain.DefaultStatistics(), cfg.Statistics)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "dashboard-specs", cfg.KafkaSpecTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	panels := filepath.Join(t.TempDir(), "panels.yaml")
	require.NoError(t, os.WriteFile(panels, []byte(`
panels:
  - name: windduur
    title: wind duration (h)
    domain: [0, 48]
`), 0o600))

	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("ROSE_CSV", "/data/rose.csv")
	t.Setenv("HIST_CSV", "/data/hist.csv")
	t.Setenv("PANELS_FILE", panels)
	t.Setenv("REFRESH_INTERVAL", "0")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SPEC_TOPIC", "custom-specs")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/data/rose.csv", cfg.RoseCSV)
	assert.Equal(t, "/data/hist.csv", cfg.HistCSV)
	assert.Equal(t, []domain.Statistic{
		{Name: "windduur", Domain: domain.Domain{Min: 0, Max: 48}, Title: "wind duration (h)"},
	}, cfg.Statistics)
	assert.Zero(t, cfg.RefreshInterval)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-specs", cfg.KafkaSpecTopic)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "-1s"}, "SHUTDOWN_TIMEOUT"},
		{"refresh interval", map[string]string{"REFRESH_INTERVAL": "often"}, "REFRESH_INTERVAL"},
		{"negative refresh interval", map[string]string{"REFRESH_INTERVAL": "-5m"}, "REFRESH_INTERVAL"},
		{"missing panels file", map[string]string{"PANELS_FILE": "/nonexistent/panels.yaml"}, "PANELS_FILE"},
		{"kafka without brokers", map[string]string{"KAFKA_ENABLED": "true", "KAFKA_BROKERS": " , "}, "KAFKA_BROKERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParsePanels(t *testing.T) {
	stats, err := ParsePanels([]byte(`
panels:
  - name: opzetduur
    domain: [0, 40]
  - name: fase
    title: surge peak
    domain: [-6, 6]
`))
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "opzetduur", stats[0].Name)
	assert.Equal(t, "opzetduur", stats[0].Title, "title defaults to the name")
	assert.Equal(t, domain.Domain{Min: -6, Max: 6}, stats[1].Domain)
}

func TestParsePanels_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"not yaml", "panels: [", "parse panels"},
		{"empty", "panels: []", "no panels"},
		{"unnamed", "panels:\n  - domain: [0, 1]", "name is required"},
		{"duplicate", "panels:\n  - {name: fase, domain: [0, 1]}\n  - {name: fase, domain: [0, 2]}", "listed twice"},
		{"one bound", "panels:\n  - {name: fase, domain: [0]}", "two bounds"},
		{"inverted", "panels:\n  - {name: fase, domain: [6, -6]}", "inverted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePanels([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParsePanels_DomainRangeIsMatchable(t *testing.T) {
	_, err := ParsePanels([]byte("panels:\n  - {name: fase, domain: [1, 1]}"))
	require.ErrorIs(t, err, domain.ErrDomainRange)
}
