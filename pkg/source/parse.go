package source

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseSamples reads numeric samples from r. Samples may be separated by
// newlines, commas, or any whitespace; blank fields and lines starting with
// '#' are skipped. Parsing is fail-fast: the first malformed token aborts
// the read.
func ParseSamples(r io.Reader) ([]float64, error) {
	var samples []float64

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		for _, field := range fields {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid sample %q: %w", lineNo, field, err)
			}
			samples = append(samples, value)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}

	return samples, nil
}
