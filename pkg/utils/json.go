package utils

import (
	"bytes"
	"math"
	"strconv"
)

// NullableFloat is a float64 that marshals NaN and infinities as JSON null.
// encoding/json refuses to encode those values, but they are legitimate
// results for statistics over degenerate windows, so reports and API
// responses use this type instead of raw float64.
type NullableFloat float64

// MarshalJSON implements json.Marshaler.
func (f NullableFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null decodes to NaN.
func (f *NullableFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = NullableFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(bytes.TrimSpace(data)), 64)
	if err != nil {
		return err
	}
	*f = NullableFloat(v)
	return nil
}

// Float returns the underlying float64.
func (f NullableFloat) Float() float64 {
	return float64(f)
}
