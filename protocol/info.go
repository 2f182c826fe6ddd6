package protocol

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Info is the summary a collector puts in the "info" field, e.g.
//
//	processed: 1; failed: 0; total: 1; seconds spent: 0.000010
//
// The sender never relies on it; it is a convenience for reporting.
type Info struct {
	Processed int
	Failed    int
	Total     int
	Spent     time.Duration
}

// ParseInfo parses a collector info summary.
// Unknown fields are ignored; a known field with a malformed number is an error.
func ParseInfo(info string) (Info, error) {
	var out Info
	if strings.TrimSpace(info) == "" {
		return out, fmt.Errorf("empty info")
	}

	for _, part := range strings.Split(info, ";") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		var err error
		switch name {
		case "processed":
			out.Processed, err = strconv.Atoi(value)
		case "failed":
			out.Failed, err = strconv.Atoi(value)
		case "total":
			out.Total, err = strconv.Atoi(value)
		case "seconds spent":
			var secs float64
			secs, err = strconv.ParseFloat(value, 64)
			out.Spent = time.Duration(math.Round(secs * float64(time.Second)))
		}
		if err != nil {
			return Info{}, fmt.Errorf("parse info field %q: %w", name, err)
		}
	}

	return out, nil
}
