package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderview/internal/loader"
	"orderview/internal/metrics"
)

const mergedPages = `[
	{"page": 1, "response": {"code": 0, "data": {"rowList": [
		{"orderInfo": {"orderId": "1001", "status": {"name": "Paid", "key": "WAIT_SELLER_SEND_GOODS"}, "paidPrice": 10},
		 "products": [{"productName": "Tea", "uintPrice": 5, "price": 10, "amount": 2, "cover": "c.png",
		               "specValues": [{"name": "size", "value": "L"}]}]},
		{"orderInfo": {"orderId": "1002", "paidPrice": 20}},
		"junk"
	]}}},
	{"page": 2, "response": {"code": 0, "data": {"rowList": [
		{"orderInfo": {"orderId": "1002", "paidPrice": 20}},
		{"orderInfo": {"orderId": "999", "paidPrice": 1}},
		{"orderInfo": {"paidPrice": 1}}
	]}}},
	{"page": 3, "response": {"code": 500, "message": "busy"}},
	{"page": 5, "response": {"code": "busy", "data": {"rowList": [{"orderInfo": {"orderId": "7"}}]}}},
	{"response": {"code": 0, "data": {"rowList": []}}},
	{"page": 4, "response": {"code": 0, "data": {}}}
]`

// memSink collects entries in memory.
type memSink struct {
	entries []Entry
	closed  bool
}

func (m *memSink) Append(e Entry) error { m.entries = append(m.entries, e); return nil }
func (m *memSink) Close() error         { m.closed = true; return nil }

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestParsePages(t *testing.T) {
	pages, skipped, err := ParsePages([]byte(mergedPages))
	require.NoError(t, err)

	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Number)
	assert.Len(t, pages[0].Rows, 3)
	assert.Equal(t, 2, pages[1].Number)
	assert.Len(t, skipped, 4)
	assert.Contains(t, skipped[0], "failure code 500")
	assert.Contains(t, skipped[1], `non-integer code "busy"`)

	pages, skipped, err = ParsePages([]byte(`[{"page": 1, "response": {"code": null, "data": {"rowList": []}}},
		{"page": 2, "response": {"code": 1.5, "data": {"rowList": []}}}]`))
	require.NoError(t, err)
	assert.Len(t, pages, 1)
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0], "non-integer code 1.5")

	_, _, err = ParsePages([]byte(`{"page": 1}`))
	assert.Error(t, err)
	_, _, err = ParsePages([]byte(`[`))
	assert.Error(t, err)
}

func TestExport_DedupesAndSkips(t *testing.T) {
	pages, _, err := ParsePages([]byte(mergedPages))
	require.NoError(t, err)
	sink := &memSink{}
	idx := openTestIndex(t)

	res, err := Export(pages, Options{Index: idx, Sink: sink, Metrics: metrics.NewRegistry(), Log: zerolog.Nop()})
	require.NoError(t, err)

	assert.True(t, sink.closed)
	assert.Empty(t, res.Pending)
	assert.Equal(t, 3, res.Exported)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, "1002", res.LastOrderID)
	require.Len(t, sink.entries, 3)
	assert.Equal(t, "1001", sink.entries[0].OrderInfo.OrderID)
	assert.Equal(t, 1, sink.entries[0].Page)
	assert.Equal(t, "999", sink.entries[2].OrderInfo.OrderID)
	assert.Equal(t, 2, sink.entries[2].Page)

	p, ok := idx.Page("1002")
	assert.True(t, ok)
	assert.Equal(t, 1, p)
	n, err := idx.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// a second run over the same pages finds nothing new
	again := &memSink{}
	res, err = Export(pages, Options{Index: idx, Sink: again, Log: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Exported)
	assert.Equal(t, 4, res.Duplicates)
}

func TestRun_AfterID(t *testing.T) {
	pages, _, err := ParsePages([]byte(mergedPages))
	require.NoError(t, err)
	sink := &memSink{}

	res, err := Run(pages, Options{AfterID: "1001", Index: openTestIndex(t), Sink: sink, Log: zerolog.Nop()})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Exported)
	assert.Equal(t, 2, res.Filtered)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, "1002", res.LastOrderID)

	res, err = Run(pages, Options{AfterID: "5000", Index: openTestIndex(t), Sink: &memSink{}, Log: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Exported)
	assert.Equal(t, "5000", res.LastOrderID)
}

// failingSink rejects appends of one order ID, or fails on Close.
type failingSink struct {
	memSink
	failID    string
	failClose bool
}

func (f *failingSink) Append(e Entry) error {
	if e.OrderInfo.OrderID == f.failID {
		return errors.New("broker down")
	}
	return f.memSink.Append(e)
}

func (f *failingSink) Close() error {
	if f.failClose {
		return errors.New("disk full")
	}
	return f.memSink.Close()
}

func TestRun_LeavesIndexUntouched(t *testing.T) {
	pages, _, err := ParsePages([]byte(mergedPages))
	require.NoError(t, err)
	idx := openTestIndex(t)

	res, err := Run(pages, Options{Index: idx, Sink: &memSink{}, Log: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, []Mark{{"1001", 1}, {"1002", 1}, {"999", 2}}, res.Pending)
	n, err := idx.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestExport_FailedAppendIsRetried(t *testing.T) {
	pages, _, err := ParsePages([]byte(mergedPages))
	require.NoError(t, err)
	idx := openTestIndex(t)

	_, err = Export(pages, Options{Index: idx, Sink: &failingSink{failID: "1002"}, Log: zerolog.Nop()})
	require.ErrorContains(t, err, "broker down")
	n, err := idx.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	retry := &memSink{}
	res, err := Export(pages, Options{Index: idx, Sink: retry, Log: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Exported)
	assert.Equal(t, 1, res.Duplicates)
	got := []string{}
	for _, e := range retry.entries {
		got = append(got, e.OrderInfo.OrderID)
	}
	assert.Equal(t, []string{"1001", "1002", "999"}, got)
}

func TestExport_FailedCloseIsRetried(t *testing.T) {
	pages, _, err := ParsePages([]byte(mergedPages))
	require.NoError(t, err)
	idx := openTestIndex(t)

	_, err = Export(pages, Options{Index: idx, Sink: &failingSink{failClose: true}, Log: zerolog.Nop()})
	require.ErrorContains(t, err, "disk full")
	has, err := idx.Has("1001")
	require.NoError(t, err)
	assert.False(t, has)

	// a merge target that is not a JSON array makes FileSink.Close fail
	file := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"not":"an array"}`), 0o644))
	fs, err := NewFileSink(file, true)
	require.NoError(t, err)
	_, err = Export(pages, Options{Index: idx, Sink: fs, Log: zerolog.Nop()})
	require.Error(t, err)

	require.NoError(t, os.WriteFile(file, []byte(`[]`), 0o644))
	fs, err = NewFileSink(file, true)
	require.NoError(t, err)
	res, err := Export(pages, Options{Index: idx, Sink: fs, Log: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Exported)
	n, err := idx.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIndex_CommitBatch(t *testing.T) {
	idx := openTestIndex(t)
	require.NoError(t, idx.Commit(nil))
	require.NoError(t, idx.Commit([]Mark{{"a", 1}, {"b", 2}}))

	p, ok := idx.Page("b")
	assert.True(t, ok)
	assert.Equal(t, 2, p)
	n, err := idx.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRun_RequiresIndexAndSink(t *testing.T) {
	_, err := Run(nil, Options{})
	assert.Error(t, err)
}

func TestGreaterID(t *testing.T) {
	assert.True(t, GreaterID("1002", "999"))
	assert.True(t, GreaterID("3700000000000000002", "3700000000000000001"))
	assert.True(t, GreaterID("10", "09"))
	assert.False(t, GreaterID("0010", "10"))
	assert.False(t, GreaterID("abc", "1"))
	assert.False(t, GreaterID("5", ""))
}

func TestOpenIndex_InMemory(t *testing.T) {
	idx, err := OpenIndex("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Commit([]Mark{{"o1", 1}}))
	has, err := idx.Has("o1")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = idx.Has("o2")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestIndex_PersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	idx, err := OpenIndex(dir)
	require.NoError(t, err)
	require.NoError(t, idx.Commit([]Mark{{"o1", 7}}))
	require.NoError(t, idx.Close())

	idx, err = OpenIndex(dir)
	require.NoError(t, err)
	defer idx.Close()
	has, err := idx.Has("o1")
	require.NoError(t, err)
	assert.True(t, has)
	p, ok := idx.Page("o1")
	assert.True(t, ok)
	assert.Equal(t, 7, p)
}

func TestFileSink_WritesLoadableExport(t *testing.T) {
	pages, _, err := ParsePages([]byte(mergedPages))
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "out", "optimized_orders.json")
	sink, err := NewFileSink(file, false)
	require.NoError(t, err)

	_, err = Run(pages, Options{Index: openTestIndex(t), Sink: sink, Log: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	ds, err := loader.ReadExport(file)
	require.NoError(t, err)
	require.Len(t, ds.Records, 3)
	r := ds.Records[0]
	assert.Equal(t, "1001", r.OrderID)
	assert.Equal(t, "1", r.PageGroup)
	assert.Equal(t, "Paid", r.Status.Name)
	assert.Equal(t, 10.0, r.Pricing.PaidPrice)
	require.Len(t, r.Products, 1)
	assert.Equal(t, 5.0, r.Products[0].UnitPrice)
	assert.Equal(t, 10.0, r.Products[0].TotalPrice)
	assert.Equal(t, int64(2), r.Products[0].Amount)
	assert.Equal(t, "c.png", r.Products[0].ImageURL)
	assert.Equal(t, "L", r.Products[0].SpecValues[0].Value)
	assert.Equal(t, "2", ds.Records[2].PageGroup)
}

func TestFileSink_Merge(t *testing.T) {
	file := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"page":1,"orderInfo":{"orderId":"old"}}]`), 0o644))

	sink, err := NewFileSink(file, true)
	require.NoError(t, err)
	require.NoError(t, sink.Append(Entry{Page: 2, OrderInfo: OrderInfo{OrderID: "new"}}))
	require.NoError(t, sink.Close())

	var got []Entry
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "old", got[0].OrderInfo.OrderID)
	assert.Equal(t, "new", got[1].OrderInfo.OrderID)
}

// fakeKafkaWriter implements kafkaMessageWriter for tests
type fakeKafkaWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaSink_Append(t *testing.T) {
	fw := &fakeKafkaWriter{}
	ks := NewKafkaSinkWith(fw)

	require.NoError(t, ks.Append(Entry{Page: 1, OrderInfo: OrderInfo{OrderID: "1001"}}))
	require.NoError(t, ks.Close())

	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "1001", string(fw.msgs[0].Key))
	var e Entry
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &e))
	assert.Equal(t, 1, e.Page)
}

func TestMultiSink_StopsOnError(t *testing.T) {
	mem := &memSink{}
	ms := NewMultiSink(mem, NewKafkaSinkWith(&fakeKafkaWriter{err: errors.New("broker down")}))

	assert.Error(t, ms.Append(Entry{OrderInfo: OrderInfo{OrderID: "x"}}))
	assert.Len(t, mem.entries, 1)
	require.NoError(t, ms.Close())
	assert.True(t, mem.closed)
}

func TestManifest_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadManifest(dir)
	assert.Error(t, err)

	require.NoError(t, WriteManifest(dir, Manifest{Output: "o.json", Count: 3, LastOrderID: "1002"}))
	m, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "1002", m.LastOrderID)
	assert.Equal(t, 3, m.Count)
	assert.NotZero(t, m.CreatedAtEpochSecond)
}
