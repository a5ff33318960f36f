package vegalite_test

import (
	"testing"

	"github.com/couchcryptid/storm-data-dashboard/internal/vegalite"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "minimal unit",
			doc: `{"$schema": "https://vega.github.io/schema/vega-lite/v5.json",
				"mark": {"type": "bar"}, "data": {"name": "bins"},
				"encoding": {"x": {"field": "fase", "type": "quantitative"}}}`,
		},
		{
			name:    "missing schema",
			doc:     `{"mark": {"type": "bar"}, "data": {"name": "bins"}}`,
			wantErr: "$schema",
		},
		{
			name: "unknown mark",
			doc: `{"$schema": "https://vega.github.io/schema/vega-lite/v5.json",
				"mark": {"type": "pie"}, "data": {"name": "bins"}}`,
			wantErr: "/mark/type",
		},
		{
			name: "selection without views",
			doc: `{"$schema": "https://vega.github.io/schema/vega-lite/v5.json",
				"mark": {"type": "bar"}, "data": {"name": "bins"},
				"params": [{"name": "hover", "select": {"type": "point"}}]}`,
			wantErr: "/params/0",
		},
		{
			name: "empty condition",
			doc: `{"$schema": "https://vega.github.io/schema/vega-lite/v5.json",
				"mark": {"type": "bar"}, "data": {"name": "bins"},
				"encoding": {"strokeWidth": {"condition": [], "value": 0}}}`,
			wantErr: "/encoding/strokeWidth",
		},
		{
			name:    "not json",
			doc:     `{"mark":`,
			wantErr: "decode spec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := vegalite.Validate([]byte(tt.doc))
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	doc := `{"$schema": "https://vega.github.io/schema/vega-lite/v5.json",
		"mark": {"type": "bar"}, "data": {"name": "bins"},
		"width": -1,
		"transform": [{"filter": {}}]}`

	err := vegalite.Validate([]byte(doc))
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.GreaterOrEqual(t, len(merr.Errors), 2)
	assert.Contains(t, err.Error(), "/width")
	assert.Contains(t, err.Error(), "/transform/0")
}
