// Command validate performs integrity checks over the dashboard inputs and,
// optionally, a previously emitted specification. It verifies input schemas,
// cross-table consistency, bin ranges, and that every view builds into a
// schema-valid document.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -rose data/mock/4locs_storms_rose_binned.csv \
//	  -hist data/mock/4locs_storms_hists_binned.csv \
//	  -spec out/dashboard.vl.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/storm-data-dashboard/internal/adapter/csvsource"
	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
	"github.com/couchcryptid/storm-data-dashboard/internal/observability"
	"github.com/couchcryptid/storm-data-dashboard/internal/pipeline"
	"github.com/couchcryptid/storm-data-dashboard/internal/vegalite"
	"github.com/jonboulle/clockwork"
)

// buildTime is fixed so repeated runs emit byte-identical documents.
var buildTime = time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rosePath := flag.String("rose", "", "wind-rose CSV")
	histPath := flag.String("hist", "", "histogram CSV")
	specPath := flag.String("spec", "", "optional emitted dashboard spec to compare against")
	flag.Parse()

	if *rosePath == "" || *histPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rosePath, *histPath, *specPath); code != 0 {
		os.Exit(code)
	}
}

func run(rosePath, histPath, specPath string) int {
	fmt.Println("=== Dashboard Input Validation ===")
	fmt.Println()

	stats := domain.DefaultStatistics()
	ref := domain.NewReferenceData()

	// ── Load inputs ──
	data, err := csvsource.New(rosePath, histPath, stats, observability.NewCommandLogger("error", os.Stderr)).
		Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load inputs: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateColumnTypes(data, stats),
		validateLocations(data, ref),
		validateBins(data.Hist, stats),
	}
	built, p := validateBuild(data, stats, ref)
	phases = append(phases, p)
	if specPath != "" {
		phases = append(phases, validateEmittedSpec(specPath, built))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d rose, %d histogram\n", data.Rose.Len(), data.Hist.Len())

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

// validateColumnTypes checks that measure columns parsed as numbers.
func validateColumnTypes(data domain.StormData, stats []domain.Statistic) *phase {
	p := &phase{name: "Phase 1: Column Types"}

	for _, col := range []string{"sector", "mean_windspeed", "count"} {
		if ft := data.Rose.FieldType(col); ft != domain.Quantitative {
			p.errorf("rose column %q is %s, want quantitative", col, ft)
		}
	}
	for _, s := range stats {
		for _, col := range s.Columns() {
			if ft := data.Hist.FieldType(col); ft != domain.Quantitative {
				p.errorf("histogram column %q is %s, want quantitative", col, ft)
			}
		}
	}
	return p
}

// validateLocations checks every input location against the reference
// gauges and every histogram location/direction pair against the rose.
func validateLocations(data domain.StormData, ref domain.ReferenceData) *phase {
	p := &phase{name: "Phase 2: Location Cross-Reference"}

	known := map[string]bool{}
	for _, l := range ref.Gauges() {
		known[l.Name] = true
	}

	pairs := map[[2]string]bool{}
	for i, r := range data.Rose.Records() {
		loc, _ := r["location"].(string)
		dir, _ := r["wind_dir"].(string)
		if !known[loc] {
			p.errorf("rose row %d: unknown location %q", i, loc)
		}
		if pairs[[2]string{loc, dir}] {
			p.errorf("rose row %d: duplicate sector %s/%s", i, loc, dir)
		}
		pairs[[2]string{loc, dir}] = true
	}

	for i, r := range data.Hist.Records() {
		loc, _ := r["location"].(string)
		dir, _ := r["wind_dir"].(string)
		if !pairs[[2]string{loc, dir}] {
			p.errorf("histogram row %d: %s/%s has no wind-rose sector", i, loc, dir)
		}
	}
	return p
}

// validateBins checks that each bin lies inside its statistic's domain and
// that counts are non-negative whole numbers.
func validateBins(hist *domain.Dataset, stats []domain.Statistic) *phase {
	p := &phase{name: "Phase 3: Histogram Bins"}

	for i, r := range hist.Records() {
		for _, s := range stats {
			start, ok1 := r[s.BinStart()].(float64)
			end, ok2 := r[s.BinEnd()].(float64)
			count, ok3 := r[s.Count()].(float64)
			if !ok1 && !ok2 && !ok3 {
				continue
			}
			if !ok1 || !ok2 || !ok3 {
				p.errorf("row %d %s: partially empty bin", i, s.Name)
				continue
			}
			if end <= start {
				p.errorf("row %d %s: bin end %g not after start %g", i, s.Name, end, start)
			}
			if start < s.Domain.Min || end > s.Domain.Max {
				p.errorf("row %d %s: bin [%g, %g) outside domain [%g, %g]", i, s.Name, start, end, s.Domain.Min, s.Domain.Max)
			}
			if count < 0 || count != math.Trunc(count) {
				p.errorf("row %d %s: count %g is not a non-negative integer", i, s.Name, count)
			}
		}
	}
	return p
}

// validateBuild builds every view against ref and checks it against the
// schema.
func validateBuild(data domain.StormData, stats []domain.Statistic, ref domain.ReferenceData) (*pipeline.Pipeline, *phase) {
	p := &phase{name: "Phase 4: Dashboard Build"}

	src := staticSource{data}
	pl := pipeline.New(src, stats, observability.NewCommandLogger("error", os.Stderr), observability.NewUnregisteredMetrics(),
		pipeline.WithClock(clockwork.NewFakeClockAt(buildTime)), pipeline.WithReference(ref))
	if err := pl.Build(context.Background()); err != nil {
		p.errorf("build: %v", err)
		return nil, p
	}
	for _, doc := range pl.Documents() {
		if err := vegalite.Validate(doc.JSON); err != nil {
			p.errorf("%s: %v", doc.Name, err)
		}
	}
	return pl, p
}

// validateEmittedSpec compares a spec on disk with a fresh build: both must
// be schema-valid and declare the same parameters over the same datasets.
func validateEmittedSpec(path string, built *pipeline.Pipeline) *phase {
	p := &phase{name: "Phase 5: Emitted Spec Parity"}

	b, err := os.ReadFile(path)
	if err != nil {
		p.errorf("read spec: %v", err)
		return p
	}
	if err := vegalite.Validate(b); err != nil {
		p.errorf("schema: %v", err)
	}
	if built == nil {
		p.errorf("no fresh build to compare against")
		return p
	}
	fresh, _ := built.Document("dashboard")

	got, err := summarize(b)
	if err != nil {
		p.errorf("decode spec: %v", err)
		return p
	}
	want, err := summarize(fresh.JSON)
	if err != nil {
		p.errorf("decode fresh build: %v", err)
		return p
	}

	if !slices.Equal(got.params, want.params) {
		p.errorf("params %v, fresh build has %v", got.params, want.params)
	}
	for name, n := range want.datasets {
		if got.datasets[name] != n {
			p.errorf("dataset %q has %d records, fresh build has %d", name, got.datasets[name], n)
		}
	}
	for name := range got.datasets {
		if _, ok := want.datasets[name]; !ok {
			p.errorf("dataset %q not in fresh build", name)
		}
	}
	return p
}

type specSummary struct {
	params   []string
	datasets map[string]int
}

func summarize(b []byte) (specSummary, error) {
	var doc struct {
		Params []struct {
			Name string `json:"name"`
		} `json:"params"`
		Datasets map[string][]json.RawMessage `json:"datasets"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return specSummary{}, err
	}
	s := specSummary{datasets: map[string]int{}}
	for _, p := range doc.Params {
		s.params = append(s.params, p.Name)
	}
	slices.Sort(s.params)
	for name, recs := range doc.Datasets {
		s.datasets[name] = len(recs)
	}
	return s, nil
}

// staticSource serves already-loaded inputs to the pipeline.
type staticSource struct{ data domain.StormData }

func (s staticSource) Load(context.Context) (domain.StormData, error) { return s.data, nil }
