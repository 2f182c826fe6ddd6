package trapper

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/pior/trapper/internal/coarsetime"
	"github.com/pior/trapper/protocol"
)

// Entry is a value for an item key. Clock is a unix timestamp; zero means
// the time the entry is added.
type Entry struct {
	Key   string
	Value string
	Clock int64
}

// BulkBuffer accumulates measurements for a single flush.
//
// Every add call is all-or-nothing: entries are validated and staged first,
// and the buffer only changes when the whole call is valid. The buffer is
// owned by one Sender and is not safe for concurrent use.
type BulkBuffer struct {
	hostname string
	items    []protocol.Measurement
	now      func() int64
}

func newBulkBuffer(hostname string) *BulkBuffer {
	return &BulkBuffer{
		hostname: hostname,
		now:      coarsetime.Unix,
	}
}

// Add appends entries for the sender's own hostname.
func (b *BulkBuffer) Add(entries ...Entry) error {
	return b.AddHost(b.hostname, entries...)
}

// AddHost appends entries for an explicit hostname.
func (b *BulkBuffer) AddHost(host string, entries ...Entry) error {
	staged := make([]protocol.Measurement, 0, len(entries))
	for i, e := range entries {
		m, err := newMeasurement(host, e, b.now)
		if err != nil {
			err.Index = i
			return err
		}
		staged = append(staged, m)
	}

	b.items = append(b.items, staged...)
	return nil
}

// AddRows appends loosely shaped rows, as read from files or other untyped
// input. Each row is [key, value] or [key, value, clock]. An empty host means
// the sender's own hostname.
func (b *BulkBuffer) AddRows(host string, rows [][]string) error {
	if host == "" {
		host = b.hostname
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		e, err := entryFromRow(row)
		if err != nil {
			err.Index = i
			return err
		}
		entries = append(entries, e)
	}

	return b.AddHost(host, entries...)
}

// Len returns the number of buffered measurements.
func (b *BulkBuffer) Len() int {
	return len(b.items)
}

// Items returns a copy of the buffered measurements in insertion order.
func (b *BulkBuffer) Items() []protocol.Measurement {
	return slices.Clone(b.items)
}

// Clear empties the buffer.
func (b *BulkBuffer) Clear() {
	b.items = nil
}

// snapshot returns the buffered measurements without copying.
// The caller must not modify the slice.
func (b *BulkBuffer) snapshot() []protocol.Measurement {
	return b.items
}

func entryFromRow(row []string) (Entry, *ValidationError) {
	switch len(row) {
	case 2:
		return Entry{Key: row[0], Value: row[1]}, nil
	case 3:
		clock, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return Entry{}, &ValidationError{Reason: fmt.Sprintf("clock %q is not an integer", row[2])}
		}
		return Entry{Key: row[0], Value: row[1], Clock: clock}, nil
	default:
		return Entry{}, &ValidationError{Reason: fmt.Sprintf("expected key, value and optional clock, got %d fields", len(row))}
	}
}

func newMeasurement(host string, e Entry, now func() int64) (protocol.Measurement, *ValidationError) {
	switch {
	case host == "":
		return protocol.Measurement{}, &ValidationError{Reason: "empty host"}
	case e.Key == "":
		return protocol.Measurement{}, &ValidationError{Reason: "empty key"}
	case e.Value == "":
		return protocol.Measurement{}, &ValidationError{Reason: fmt.Sprintf("empty value for key %q", e.Key)}
	case e.Clock < 0:
		return protocol.Measurement{}, &ValidationError{Reason: fmt.Sprintf("negative clock %d for key %q", e.Clock, e.Key)}
	}

	clock := e.Clock
	if clock == 0 {
		clock = now()
	}

	return protocol.Measurement{
		Host:  host,
		Key:   e.Key,
		Value: e.Value,
		Clock: clock,
	}, nil
}
