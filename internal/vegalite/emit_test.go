package vegalite_test

import (
	"encoding/json"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/aclements/go-gg/table"
	"github.com/cespare/xxhash/v2"
	"github.com/couchcryptid/storm-data-dashboard/internal/chart"
	"github.com/couchcryptid/storm-data-dashboard/internal/dashboard"
	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
	"github.com/couchcryptid/storm-data-dashboard/internal/vegalite"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testDashboard(t *testing.T) *dashboard.Dashboard {
	t.Helper()
	storms := domain.MustDataset("storms_rose", new(table.Builder).
		Add("location", []string{"delfzijl", "harlingen"}).
		Add("wind_dir", []string{"NW", "W"}).
		Add("sector", []float64{315, 270}).
		Add("mean_windspeed", []float64{23.1, 22.4}).
		Add("count", []float64{4200, 3100}).
		Done())
	b := new(table.Builder).
		Add("location", []string{"delfzijl", "harlingen"}).
		Add("wind_dir", []string{"NW", "W"})
	for _, s := range domain.DefaultStatistics() {
		b.Add(s.BinStart(), []float64{-1, 0}).
			Add(s.BinEnd(), []float64{0, 1}).
			Add(s.Count(), []float64{5, 7})
	}
	d, err := dashboard.Build(dashboard.Inputs{
		Storms:    storms,
		Bins:      domain.MustDataset("storms_hist", b.Done()),
		Reference: domain.NewReferenceData(),
	})
	require.NoError(t, err)
	return d
}

// decode round-trips through JSON so assertions see what a renderer sees.
func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func paramsByName(t *testing.T, doc map[string]any) map[string]map[string]any {
	t.Helper()
	out := map[string]map[string]any{}
	for _, p := range doc["params"].([]any) {
		pm := p.(map[string]any)
		name := pm["name"].(string)
		_, dup := out[name]
		require.False(t, dup, "parameter %s emitted twice", name)
		out[name] = pm
	}
	return out
}

func TestMarshal_Dashboard(t *testing.T) {
	d := testDashboard(t)
	b, err := vegalite.Marshal(d.Root)
	require.NoError(t, err)
	require.NoError(t, vegalite.Validate(b))

	doc := decode(t, b)
	assert.Equal(t, vegalite.SchemaURL, doc["$schema"])

	t.Run("layout", func(t *testing.T) {
		rows := doc["vconcat"].([]any)
		require.Len(t, rows, 2)
		top := rows[0].(map[string]any)["hconcat"].([]any)
		require.Len(t, top, 2)
		assert.Equal(t, "map_locations", top[0].(map[string]any)["name"])

		rose := top[1].(map[string]any)
		var layerNames []any
		for _, l := range rose["layer"].([]any) {
			layerNames = append(layerNames, l.(map[string]any)["name"])
		}
		assert.Equal(t, []any{"rose_data", "rose_ring", "rose_labels", "rose_gridlines", "rose_gridlabels"}, layerNames)
		assert.Equal(t, map[string]any{"scale": map[string]any{"theta": "independent"}}, rose["resolve"])

		var panels []any
		for _, p := range rows[1].(map[string]any)["concat"].([]any) {
			panels = append(panels, p.(map[string]any)["name"])
		}
		assert.Equal(t, []any{"hist_fase", "hist_windfase", "hist_windduur", "hist_opzetduur"}, panels)
	})

	t.Run("rose encodings", func(t *testing.T) {
		rose := doc["vconcat"].([]any)[0].(map[string]any)["hconcat"].([]any)[1].(map[string]any)
		data := rose["layer"].([]any)[0].(map[string]any)
		enc := data["encoding"].(map[string]any)

		want := map[string]any{
			"condition": []any{
				map[string]any{"param": "hover", "value": 2.0, "empty": false},
				map[string]any{"param": "wind_dir", "value": 3.0, "empty": false},
			},
			"value": 0.0,
		}
		if diff := cmp.Diff(want, enc["strokeWidth"]); diff != "" {
			t.Errorf("strokeWidth mismatch (-want +got):\n%s", diff)
		}

		stroke := enc["stroke"].(map[string]any)
		assert.Contains(t, stroke, "value")
		assert.Nil(t, stroke["value"])

		assert.Equal(t, map[string]any{"field": "wind_dir", "type": "nominal", "sort": map[string]any{"field": "sector"}}, enc["theta"])
		assert.Equal(t, map[string]any{"field": "count", "type": "quantitative", "stack": nil}, enc["radius"])
		assert.Len(t, enc["tooltip"], 4)
		assert.Equal(t, []any{map[string]any{"filter": map[string]any{"param": "location"}}}, data["transform"])
		assert.Equal(t, map[string]any{"name": "storms_rose"}, data["data"])

		labels := rose["layer"].([]any)[2].(map[string]any)
		assert.Equal(t, []any{map[string]any{"calculate": "datum.winddirection * PI / 180", "as": "theta"}}, labels["transform"])
		gridlabels := rose["layer"].([]any)[4].(map[string]any)
		assert.Equal(t, map[string]any{"expr": "3*PI/4"}, gridlabels["mark"].(map[string]any)["theta"])
	})

	t.Run("histogram encodings", func(t *testing.T) {
		panel := doc["vconcat"].([]any)[1].(map[string]any)["concat"].([]any)[0].(map[string]any)
		enc := panel["encoding"].(map[string]any)
		assert.Equal(t, map[string]any{
			"field": "fase", "type": "quantitative", "title": nil,
			"bin":   map[string]any{"binned": true, "step": 1.0},
			"scale": map[string]any{"domain": []any{-6.0, 6.0}},
		}, enc["x"])
		assert.Equal(t, map[string]any{"field": "fase_end"}, enc["x2"])
		assert.Equal(t, map[string]any{"field": "fase_count", "type": "quantitative", "scale": map[string]any{"type": "log"}, "legend": nil}, enc["fill"])
		assert.Equal(t, []any{
			map[string]any{"filter": map[string]any{"param": "wind_dir"}},
			map[string]any{"filter": map[string]any{"param": "location"}},
		}, panel["transform"])
		assert.Equal(t, 150.0, panel["width"])
	})

	t.Run("params", func(t *testing.T) {
		params := paramsByName(t, doc)

		assert.Equal(t, map[string]any{"name": "width", "value": 300.0}, params["width"])
		assert.Equal(t, []any{"rose_data"}, params["hover"]["views"])
		assert.Equal(t, map[string]any{"type": "point", "on": "mouseover", "clear": "mouseout", "fields": []any{"wind_dir"}}, params["hover"]["select"])
		assert.Equal(t, []any{"rose_data"}, params["wind_dir"]["views"])
		assert.Equal(t, []any{"map_locations"}, params["location"]["views"])
		assert.Equal(t, []any{"hist_windduur"}, params["highlight_hist_windduur"]["views"])

		// Exactly the union of what the views use.
		var want []string
		for _, u := range d.Root.Units() {
			for _, p := range u.Params() {
				if !slices.Contains(want, p.Name()) {
					want = append(want, p.Name())
				}
			}
		}
		var got []string
		for name := range params {
			got = append(got, name)
		}
		assert.ElementsMatch(t, want, got)
	})

	t.Run("datasets", func(t *testing.T) {
		ds := doc["datasets"].(map[string]any)
		var got []string
		for name := range ds {
			got = append(got, name)
		}
		assert.ElementsMatch(t, []string{"storms_rose", "storms_hist", "ref_locations", "ref_winddirs", "ref_circles"}, got)
		assert.Len(t, ds["ref_winddirs"], 4)
	})
}

func TestEmit_SubViews(t *testing.T) {
	d := testDashboard(t)
	for _, name := range dashboard.ViewNames() {
		t.Run(name, func(t *testing.T) {
			v, ok := d.View(name)
			require.True(t, ok)
			b, err := vegalite.Marshal(v)
			require.NoError(t, err)
			require.NoError(t, vegalite.Validate(b))
		})
	}

	// Alone, the wind rose reads the location selection without any view
	// binding it, so the reading view binds it.
	b, err := vegalite.Marshal(d.WindRose)
	require.NoError(t, err)
	params := paramsByName(t, decode(t, b))
	assert.Equal(t, []any{"rose_data"}, params["location"]["views"])
}

func TestEmit_Options(t *testing.T) {
	d := testDashboard(t)
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	b, err := vegalite.Marshal(d.Map,
		vegalite.WithGeneratedAt(now),
		vegalite.WithDescription("gauges"),
		vegalite.WithInlineData(),
	)
	require.NoError(t, err)
	require.NoError(t, vegalite.Validate(b))

	doc := decode(t, b)
	assert.Equal(t, "gauges", doc["description"])
	assert.Equal(t, map[string]any{"generated_at": "2026-03-14T09:30:00Z"}, doc["usermeta"])
	assert.NotContains(t, doc, "datasets")
	data := doc["data"].(map[string]any)
	assert.Len(t, data["values"], 4)
	assert.Equal(t, "mercator", doc["projection"].(map[string]any)["type"])
}

func TestEmit_DatasetNameConflict(t *testing.T) {
	a := domain.MustDataset("bins", new(table.Builder).Add("v", []float64{1}).Done())
	b := domain.MustDataset("bins", new(table.Builder).Add("v", []float64{2}).Done())
	la, err := chart.NewLayer(chart.LayerSpec{Name: "a", Mark: chart.Mark{Type: chart.MarkBar}, Data: a,
		Encoding: map[chart.ChannelName]chart.Channel{chart.X: {Field: "v", Type: domain.Quantitative}}})
	require.NoError(t, err)
	lb, err := chart.NewLayer(chart.LayerSpec{Name: "b", Mark: chart.Mark{Type: chart.MarkBar}, Data: b,
		Encoding: map[chart.ChannelName]chart.Channel{chart.X: {Field: "v", Type: domain.Quantitative}}})
	require.NoError(t, err)

	c, err := chart.NewConcat("c", chart.Horizontal, la, lb)
	require.NoError(t, err)
	_, err = vegalite.Emit(c)
	require.ErrorIs(t, err, domain.ErrConfiguration)

	same := domain.MustDataset("bins", new(table.Builder).Add("v", []float64{1}).Done())
	lc, err := chart.NewLayer(chart.LayerSpec{Name: "c", Mark: chart.Mark{Type: chart.MarkBar}, Data: same,
		Encoding: map[chart.ChannelName]chart.Channel{chart.X: {Field: "v", Type: domain.Quantitative}}})
	require.NoError(t, err)
	c, err = chart.NewConcat("c", chart.Horizontal, la, lc)
	require.NoError(t, err)
	_, err = vegalite.Emit(c)
	require.NoError(t, err, "equal data under one name is inlined once")
}

func TestEmit_Nil(t *testing.T) {
	_, err := vegalite.Emit(nil)
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestEmit_ParamsAreUnionOfReferences(t *testing.T) {
	ds := domain.MustDataset("points", new(table.Builder).
		Add("k", []string{"a", "b"}).
		Add("v", []float64{1, 2}).
		Done())

	rapid.Check(t, func(t *rapid.T) {
		pool := make([]*chart.Param, rapid.IntRange(1, 5).Draw(t, "pool"))
		for i := range pool {
			pool[i] = chart.NewPointSelection(fmt.Sprintf("sel_%d", i), chart.ProjectFields("k"))
		}

		nLayers := rapid.IntRange(1, 4).Draw(t, "layers")
		layers := make([]*chart.Layer, nLayers)
		want := map[string]bool{}
		for i := range layers {
			enc := map[chart.ChannelName]chart.Channel{chart.X: {Field: "v", Type: domain.Quantitative}}
			idx := rapid.SliceOfNDistinct(rapid.IntRange(0, len(pool)-1), 0, len(pool), rapid.ID[int]).Draw(t, fmt.Sprintf("branches_%d", i))
			if len(idx) > 0 {
				var branches []chart.Branch
				for j, k := range idx {
					branches = append(branches, chart.When(pool[k], j))
					want[pool[k].Name()] = true
				}
				cond := chart.MustCondition(branches, nil)
				enc[chart.StrokeWidth] = chart.Channel{Condition: &cond}
			}
			l, err := chart.NewLayer(chart.LayerSpec{Name: fmt.Sprintf("layer_%d", i), Mark: chart.Mark{Type: chart.MarkBar}, Data: ds, Encoding: enc})
			if err != nil {
				t.Fatal(err)
			}
			layers[i] = l
		}

		o, err := chart.NewOverlay("overlay", layers...)
		if err != nil {
			t.Fatal(err)
		}
		b, err := vegalite.Marshal(o)
		if err != nil {
			t.Fatal(err)
		}

		var doc struct {
			Params []struct {
				Name string `json:"name"`
			} `json:"params"`
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			t.Fatal(err)
		}
		got := map[string]bool{}
		for _, p := range doc.Params {
			if got[p.Name] {
				t.Fatalf("parameter %s emitted twice", p.Name)
			}
			got[p.Name] = true
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("params mismatch (-want +got):\n%s", diff)
		}
		if err := vegalite.Validate(b); err != nil {
			t.Fatal(err)
		}
	})
}

func TestNewDocument(t *testing.T) {
	d := testDashboard(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))

	doc, err := vegalite.NewDocument("dashboard", d.Root, now)
	require.NoError(t, err)

	assert.Equal(t, "dashboard", doc.Name)
	assert.Equal(t, xxhash.Sum64(doc.JSON), doc.Hash)
	assert.Len(t, doc.HashHex(), 16)
	assert.Equal(t, `"`+doc.HashHex()+`"`, doc.ETag())
	assert.Equal(t, time.UTC, doc.GeneratedAt.Location())
	assert.Equal(t, "2026-01-02T02:04:05Z", decode(t, doc.JSON)["usermeta"].(map[string]any)["generated_at"])
}
