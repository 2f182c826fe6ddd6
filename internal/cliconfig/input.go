package cliconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultHost in the host column stands for the configured host.
const DefaultHost = "-"

const maxLineSize = 1 << 20

// Batch is a run of consecutive input lines for the same host.
type Batch struct {
	// Host is empty when the lines used DefaultHost.
	Host string

	// Rows are [key, value] pairs in input order.
	Rows [][]string
}

// ParseInput reads lines of "<host> <key> <value>".
//
// Fields are separated by spaces or tabs. A field may be double-quoted to hold
// blanks, with \" and \\ as the only escapes. Blank lines and lines starting
// with # are skipped.
func ParseInput(r io.Reader) ([]Batch, error) {
	var batches []Batch

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields, err := splitFields(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected <host> <key> <value>, got %d fields", lineNo, len(fields))
		}

		host, key, value := fields[0], fields[1], fields[2]
		if host == DefaultHost {
			host = ""
		}
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", lineNo)
		}
		if value == "" {
			return nil, fmt.Errorf("line %d: empty value", lineNo)
		}

		if n := len(batches); n > 0 && batches[n-1].Host == host {
			batches[n-1].Rows = append(batches[n-1].Rows, []string{key, value})
		} else {
			batches = append(batches, Batch{Host: host, Rows: [][]string{{key, value}}})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return batches, nil
}

func splitFields(line string) ([]string, error) {
	var fields []string

	for i := 0; i < len(line); {
		switch line[i] {
		case ' ', '\t':
			i++
			continue
		case '"':
			field, n, err := readQuoted(line[i:])
			if err != nil {
				return nil, err
			}
			fields = append(fields, field)
			i += n
			if i < len(line) && line[i] != ' ' && line[i] != '\t' {
				return nil, errors.New("unexpected character after closing quote")
			}
		default:
			end := strings.IndexAny(line[i:], " \t")
			if end < 0 {
				end = len(line) - i
			}
			fields = append(fields, line[i:i+end])
			i += end
		}
	}

	return fields, nil
}

// readQuoted returns the unquoted field and the number of bytes consumed,
// quotes included. s starts with the opening quote.
func readQuoted(s string) (string, int, error) {
	var b strings.Builder

	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
				b.WriteByte(s[i+1])
				i++
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}

	return "", 0, errors.New("unterminated quoted field")
}
