// Package csvsource loads the pre-aggregated storm tables from CSV files
// written by the upstream aggregation job.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/table"
	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
)

// Dataset names as they appear in emitted specs.
const (
	RoseDataset = "storms_rose"
	HistDataset = "storms_hist"
)

// RoseColumns are required in the wind-rose input.
var RoseColumns = []string{"location", "wind_dir", "sector", "mean_windspeed", "count"}

// Source reads both inputs from disk on every Load, so edits to the files
// are picked up by the next refresh.
type Source struct {
	rosePath string
	histPath string
	stats    []domain.Statistic
	logger   *slog.Logger
}

// New creates a Source. stats lists the statistics whose bin columns the
// histogram file must carry.
func New(rosePath, histPath string, stats []domain.Statistic, logger *slog.Logger) *Source {
	return &Source{rosePath: rosePath, histPath: histPath, stats: stats, logger: logger}
}

// Load reads and checks both files.
func (s *Source) Load(ctx context.Context) (domain.StormData, error) {
	rose, err := s.loadFile(ctx, s.rosePath, RoseDataset, RoseColumns)
	if err != nil {
		return domain.StormData{}, err
	}

	histCols := []string{"location", "wind_dir"}
	for _, st := range s.stats {
		histCols = append(histCols, st.Columns()...)
	}
	hist, err := s.loadFile(ctx, s.histPath, HistDataset, histCols)
	if err != nil {
		return domain.StormData{}, err
	}
	return domain.StormData{Rose: rose, Hist: hist}, nil
}

func (s *Source) loadFile(ctx context.Context, path, name string, required []string) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	ds, err := Read(f, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	for _, col := range required {
		if !ds.HasColumn(col) {
			return nil, domain.ConfigErrorf("%s: required column %q missing", path, col)
		}
	}
	s.logger.Debug("dataset loaded", "dataset", name, "path", path, "rows", ds.Len())
	return ds, nil
}

// Read parses a CSV table with a header row. A leading column with an empty
// header is a row index and is dropped. Columns whose every non-empty cell
// parses as a number become float64 with empty cells as NaN; all other
// columns stay strings.
func Read(r io.Reader, name string) (*domain.Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	skip := 0
	if len(header) > 0 && strings.TrimSpace(header[0]) == "" {
		skip = 1
	}
	names := header[skip:]
	seen := map[string]bool{}
	for _, h := range names {
		if h == "" {
			return nil, errors.New("empty column name")
		}
		if seen[h] {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		seen[h] = true
	}

	cols := make([][]string, len(names))
	for i := range cols {
		cols[i] = []string{}
	}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse line %d: %w", line, err)
		}
		for i := range names {
			cols[i] = append(cols[i], rec[skip+i])
		}
	}

	b := new(table.Builder)
	for i, h := range names {
		if nums, ok := parseNumbers(cols[i]); ok {
			b.Add(h, nums)
		} else {
			b.Add(h, cols[i])
		}
	}
	return domain.NewDataset(name, b.Done())
}

func parseNumbers(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	numeric := false
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" || strings.EqualFold(c, "nan") {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
		numeric = true
	}
	return out, numeric
}
