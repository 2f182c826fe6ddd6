package trapper

import (
	"context"
	"testing"

	"github.com/pior/trapper/internal/testutils"
	"github.com/pior/trapper/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixedNow int64 = 1_700_000_000

func newTestBuffer() *BulkBuffer {
	b := newBulkBuffer(testHostname)
	b.now = func() int64 { return fixedNow }
	return b
}

func TestBulkBufferAdd(t *testing.T) {
	b := newTestBuffer()

	require.NoError(t, b.Add(Entry{Key: "k1", Value: "v1"}, Entry{Key: "k2", Value: "v2", Clock: 42}))
	require.NoError(t, b.AddHost("other", Entry{Key: "k3", Value: "v3"}))

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []protocol.Measurement{
		{Host: testHostname, Key: "k1", Value: "v1", Clock: fixedNow},
		{Host: testHostname, Key: "k2", Value: "v2", Clock: 42},
		{Host: "other", Key: "k3", Value: "v3", Clock: fixedNow},
	}, b.Items())
}

func TestBulkBufferAddIsAtomic(t *testing.T) {
	b := newTestBuffer()
	require.NoError(t, b.Add(Entry{Key: "existing", Value: "1"}))
	before := b.Items()

	err := b.Add(
		Entry{Key: "k1", Value: "v1"},
		Entry{Key: "k2", Value: "v2"},
		Entry{Key: "k3", Value: ""},
	)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 2, verr.Index)
	assert.Contains(t, verr.Error(), "empty value")
	assert.Equal(t, before, b.Items())
}

func TestBulkBufferValidation(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		entry  Entry
		reason string
	}{
		{"empty host", "", Entry{Key: "k", Value: "v"}, "empty host"},
		{"empty key", "h", Entry{Value: "v"}, "empty key"},
		{"empty value", "h", Entry{Key: "k"}, "empty value"},
		{"negative clock", "h", Entry{Key: "k", Value: "v", Clock: -1}, "negative clock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBulkBuffer("")
			err := b.AddHost(tt.host, tt.entry)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Reason, tt.reason)
			assert.Zero(t, b.Len())
		})
	}
}

func TestBulkBufferAddRows(t *testing.T) {
	b := newTestBuffer()

	require.NoError(t, b.AddRows("h1", [][]string{{"k1", "v1"}, {"k2", "v2", "1234"}}))

	assert.Equal(t, []protocol.Measurement{
		{Host: "h1", Key: "k1", Value: "v1", Clock: fixedNow},
		{Host: "h1", Key: "k2", Value: "v2", Clock: 1234},
	}, b.Items())
}

func TestBulkBufferAddRowsDefaultsToOwnHostname(t *testing.T) {
	b := newTestBuffer()

	require.NoError(t, b.AddRows("", [][]string{{"k1", "v1"}}))
	assert.Equal(t, testHostname, b.Items()[0].Host)
}

func TestBulkBufferAddRowsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		rows   [][]string
		index  int
		reason string
	}{
		{"too few fields", [][]string{{"k1", "v1"}, {"k2"}}, 1, "got 1 fields"},
		{"too many fields", [][]string{{"k1", "v1", "1", "x"}}, 0, "got 4 fields"},
		{"bad clock", [][]string{{"k1", "v1", "soon"}}, 0, "not an integer"},
		{"empty value", [][]string{{"k1", "v1"}, {"k2", "v2"}, {"k3", ""}}, 2, "empty value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuffer()
			err := b.AddRows("h1", tt.rows)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.index, verr.Index)
			assert.Contains(t, verr.Reason, tt.reason)
			assert.Zero(t, b.Len())
		})
	}
}

func TestBulkBufferItemsIsCopy(t *testing.T) {
	b := newTestBuffer()
	require.NoError(t, b.Add(Entry{Key: "k", Value: "v"}))

	items := b.Items()
	items[0].Value = "changed"

	assert.Equal(t, "v", b.Items()[0].Value)
}

func TestBulkBufferClear(t *testing.T) {
	b := newTestBuffer()
	require.NoError(t, b.Add(Entry{Key: "k", Value: "v"}))

	b.Clear()
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Items())
}

func TestBulkSendRows(t *testing.T) {
	collector := testutils.StartCollector(t, testutils.Success())
	s := newTestSender(t, testConfig(t, collector.Addr()))
	s.buffer.now = func() int64 { return fixedNow }

	require.NoError(t, s.Buffer().AddRows("h1", [][]string{{"k1", "v1"}, {"k2", "v2", "1234"}}))

	res, err := s.BulkSend(context.Background())
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Zero(t, s.Buffer().Len())

	requests := collector.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, []protocol.Measurement{
		{Host: "h1", Key: "k1", Value: "v1", Clock: fixedNow},
		{Host: "h1", Key: "k2", Value: "v2", Clock: 1234},
	}, requests[0].Data)
}

func TestBulkSendFailureKeepsBuffer(t *testing.T) {
	collector := testutils.StartCollector(t, testutils.Failed())
	config := testConfig(t, collector.Addr())
	config.Retries = 2
	s := newTestSender(t, config)

	require.NoError(t, s.Buffer().Add(Entry{Key: "k1", Value: "v1", Clock: 1}, Entry{Key: "k2", Value: "v2", Clock: 2}))
	before := s.Buffer().Items()

	res, err := s.BulkSend(context.Background())
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, ErrRejected)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, before, s.Buffer().Items())

	// Both attempts carried the same data
	requests := collector.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, before, requests[0].Data)
	assert.Equal(t, before, requests[1].Data)
}

func TestBulkSendRetryAfterFailure(t *testing.T) {
	collector := testutils.StartCollector(t, testutils.Sequence(testutils.Failed(), testutils.Success()))
	s := newTestSender(t, testConfig(t, collector.Addr()))

	res, err := s.BulkSend(context.Background(), Entry{Key: "k", Value: "v", Clock: 7})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, 1, s.Buffer().Len())

	res, err = s.BulkSend(context.Background())
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Zero(t, s.Buffer().Len())
}

func TestBulkSendEmptyBuffer(t *testing.T) {
	var dials int
	config := Config{Server: "127.0.0.1", Hostname: testHostname}
	config.constructor = func(ctx context.Context) (*Connection, error) {
		dials++
		return nil, &protocol.ConnectError{Addr: "unused", Err: context.Canceled}
	}
	s := newTestSender(t, config)

	res, err := s.BulkSend(context.Background())
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, ErrEmptyBuffer)
	assert.Zero(t, res.Attempts)
	assert.Zero(t, dials)
}

func TestBulkSendInvalidEntries(t *testing.T) {
	collector := testutils.StartCollector(t, testutils.Success())
	s := newTestSender(t, testConfig(t, collector.Addr()))
	require.NoError(t, s.Buffer().Add(Entry{Key: "k", Value: "v"}))

	_, err := s.BulkSend(context.Background(), Entry{Key: "k2", Value: "v2"}, Entry{Key: "", Value: "v3"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, s.Buffer().Len())
	assert.Zero(t, collector.Accepts())
}
