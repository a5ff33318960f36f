package domain

import (
	"math"
	"reflect"
	"slices"

	"github.com/aclements/go-gg/table"
)

// FieldType is the measurement type of a column as understood by the
// rendering grammar.
type FieldType string

const (
	Nominal      FieldType = "nominal"
	Quantitative FieldType = "quantitative"
)

// Record is one row of a dataset keyed by column name.
type Record map[string]any

// Dataset is an immutable, named table of typed columns. Charts refer to it
// by name; the emitter inlines its records once per document.
type Dataset struct {
	name  string
	tab   *table.Table
	types map[string]FieldType
}

// NewDataset wraps tab under name. Numeric columns are quantitative, all
// others nominal.
func NewDataset(name string, tab *table.Table) (*Dataset, error) {
	if name == "" {
		return nil, ConfigErrorf("dataset name is required")
	}
	if tab == nil {
		tab = new(table.Table)
	}
	types := make(map[string]FieldType, len(tab.Columns()))
	for _, col := range tab.Columns() {
		types[col] = inferType(tab.Column(col))
	}
	return &Dataset{name: name, tab: tab, types: types}, nil
}

// MustDataset is NewDataset for literal tables; it panics on error.
func MustDataset(name string, tab *table.Table) *Dataset {
	d, err := NewDataset(name, tab)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dataset) Name() string { return d.name }

// Len returns the number of records.
func (d *Dataset) Len() int { return d.tab.Len() }

// Columns returns the column names in table order.
func (d *Dataset) Columns() []string { return slices.Clone(d.tab.Columns()) }

// HasColumn reports whether the dataset schema contains col.
func (d *Dataset) HasColumn(col string) bool {
	_, ok := d.types[col]
	return ok
}

// FieldType returns the type of col, or "" when the column is absent.
func (d *Dataset) FieldType(col string) FieldType { return d.types[col] }

// Records materializes the rows. NaN cells become nil so the result is
// JSON-encodable.
func (d *Dataset) Records() []Record {
	cols := d.tab.Columns()
	vals := make([]reflect.Value, len(cols))
	for i, c := range cols {
		vals[i] = reflect.ValueOf(d.tab.Column(c))
	}

	n := d.tab.Len()
	out := make([]Record, n)
	for i := range n {
		rec := make(Record, len(cols))
		for j, c := range cols {
			v := vals[j].Index(i).Interface()
			if f, ok := v.(float64); ok && math.IsNaN(f) {
				v = nil
			}
			rec[c] = v
		}
		out[i] = rec
	}
	return out
}

func inferType(col any) FieldType {
	t := reflect.TypeOf(col)
	if t == nil || t.Kind() != reflect.Slice {
		return Nominal
	}
	switch t.Elem().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Quantitative
	default:
		return Nominal
	}
}

// StormData is the pair of pre-aggregated inputs the dashboard is built
// from: per-sector wind-rose counts and per-statistic histogram bins.
type StormData struct {
	Rose *Dataset
	Hist *Dataset
}
