// Command genmock writes deterministic wind-rose and histogram CSV fixtures
// for the four reference gauges. The files have the same layout as the
// upstream aggregation output, including the leading unnamed index column
// and empty cells where a statistic has fewer bins than the widest one.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -rose-out data/mock/4locs_storms_rose_binned.csv \
//	  -hist-out data/mock/4locs_storms_hists_binned.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/storm-data-dashboard/internal/adapter/csvsource"
	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
)

// compass lists the sixteen wind sectors clockwise from north.
var compass = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	roseOut := flag.String("rose-out", "", "output path for the wind-rose CSV")
	histOut := flag.String("hist-out", "", "output path for the histogram CSV")
	seed := flag.Uint64("seed", 20230601, "random seed")
	flag.Parse()

	if *roseOut == "" || *histOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -rose-out, -hist-out")
	}

	ref := domain.NewReferenceData()
	stats := domain.DefaultStatistics()
	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	rose := roseRows(rng, ref.Gauges())
	if err := writeCSV(*roseOut, append([]string{""}, csvsource.RoseColumns...), rose); err != nil {
		return fmt.Errorf("writing rose fixture: %w", err)
	}
	log.Printf("wrote rose fixture: %s (%d rows)", *roseOut, len(rose))

	header, hist := histRows(rng, ref.Gauges(), stats)
	if err := writeCSV(*histOut, header, hist); err != nil {
		return fmt.Errorf("writing hist fixture: %w", err)
	}
	log.Printf("wrote hist fixture: %s (%d rows)", *histOut, len(hist))

	printStats(rose)
	return nil
}

// roseRows emits one row per gauge and sector. Westerly sectors get more
// and stronger storms, as on the Dutch coast.
func roseRows(rng *rand.Rand, locs []domain.Location) [][]string {
	rows := make([][]string, 0, len(locs)*len(compass))
	for _, loc := range locs {
		for i, dir := range compass {
			sector := float64(i) * 22.5
			westerly := math.Max(0, -math.Sin(sector*math.Pi/180))
			count := 100 + int(westerly*6000) + rng.IntN(800)
			speed := 21 + westerly*3.5 + rng.Float64()*1.5
			rows = append(rows, []string{
				strconv.Itoa(len(rows)),
				loc.Name,
				dir,
				strconv.FormatFloat(sector, 'f', -1, 64),
				strconv.FormatFloat(math.Round(speed*100)/100, 'f', -1, 64),
				strconv.Itoa(count),
			})
		}
	}
	return rows
}

// histRows emits unit-width bins over each statistic's domain. A row carries
// one bin of every statistic; statistics with fewer bins leave their cells
// empty.
func histRows(rng *rand.Rand, locs []domain.Location, stats []domain.Statistic) ([]string, [][]string) {
	header := []string{"", "location", "wind_dir"}
	maxBins := 0
	for _, s := range stats {
		header = append(header, s.Columns()...)
		maxBins = max(maxBins, int(s.Domain.Max-s.Domain.Min))
	}

	var rows [][]string
	for _, loc := range locs {
		for _, dir := range []string{"SW", "WSW", "W", "WNW", "NW", "NNW"} {
			for b := range maxBins {
				row := []string{strconv.Itoa(len(rows)), loc.Name, dir}
				for _, s := range stats {
					if b >= int(s.Domain.Max-s.Domain.Min) {
						row = append(row, "", "", "")
						continue
					}
					start := s.Domain.Min + float64(b)
					row = append(row,
						strconv.FormatFloat(start, 'f', -1, 64),
						strconv.FormatFloat(start+1, 'f', -1, 64),
						strconv.Itoa(rng.IntN(40)),
					)
				}
				rows = append(rows, row)
			}
		}
	}
	return header, rows
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func printStats(rose [][]string) {
	byLoc := map[string]int{}
	total := 0
	for _, r := range rose {
		n, _ := strconv.Atoi(r[5])
		byLoc[r[1]] += n
		total += n
	}
	fmt.Println("\n=== Mock Data Stats ===")
	for _, loc := range domain.NewReferenceData().Gauges() {
		fmt.Printf("  %-16s %6d storms\n", loc.Name, byLoc[loc.Name])
	}
	fmt.Printf("  %-16s %6d storms\n", "total", total)
}
