package utils

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableFloatMarshal(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{name: "finite", value: 2.5, want: "2.5"},
		{name: "zero", value: 0, want: "0"},
		{name: "nan", value: math.NaN(), want: "null"},
		{name: "positive infinity", value: math.Inf(1), want: "null"},
		{name: "negative infinity", value: math.Inf(-1), want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(NullableFloat(tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestNullableFloatUnmarshal(t *testing.T) {
	var f NullableFloat
	require.NoError(t, json.Unmarshal([]byte("3.25"), &f))
	assert.Equal(t, 3.25, f.Float())

	require.NoError(t, json.Unmarshal([]byte("null"), &f))
	assert.True(t, math.IsNaN(f.Float()))

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &f))
}

func TestNullableFloatInStruct(t *testing.T) {
	payload := struct {
		Mean   NullableFloat `json:"mean"`
		ZScore NullableFloat `json:"zscore"`
	}{
		Mean:   NullableFloat(4.5),
		ZScore: NullableFloat(math.NaN()),
	}

	got, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mean":4.5,"zscore":null}`, string(got))
}
