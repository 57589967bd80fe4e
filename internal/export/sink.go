package export

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
)

// Sink receives exported entries. Close must be called once all entries are appended.
type Sink interface {
	Append(e Entry) error
	Close() error
}

// MultiSink fans out entries to multiple sinks.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(ss ...Sink) *MultiSink {
	return &MultiSink{sinks: ss}
}

func (m *MultiSink) Append(e Entry) error {
	for _, s := range m.sinks {
		if err := s.Append(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// FileSink writes the export file as one JSON array. Nothing is written until
// Close, which replaces the file atomically.
type FileSink struct {
	path    string
	merge   bool
	entries []Entry
}

// NewFileSink creates the parent directory of path. With merge set, entries
// already in the file are kept ahead of the new ones.
func NewFileSink(path string, merge bool) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "mkdir")
	}
	return &FileSink{path: path, merge: merge}, nil
}

func (f *FileSink) Path() string { return f.path }

func (f *FileSink) Append(e Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *FileSink) Close() error {
	out := []json.RawMessage{}
	if f.merge {
		prev, err := readEntries(f.path)
		if err != nil {
			return err
		}
		out = append(out, prev...)
	}
	for _, e := range f.entries {
		b, err := json.Marshal(&e)
		if err != nil {
			return errors.Wrapf(err, "marshal order %s", e.OrderInfo.OrderID)
		}
		out = append(out, b)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create")
	}
	defer os.Remove(tmp.Name())
	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		tmp.Close()
		return errors.Wrap(err, "encode")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrap(err, "rename")
	}
	return nil
}

func readEntries(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read existing export")
	}
	var prev []json.RawMessage
	if err := json.Unmarshal(data, &prev); err != nil {
		return nil, errors.Wrapf(err, "existing export %s is not a JSON array", path)
	}
	return prev, nil
}

// KafkaSink publishes entries to a Kafka topic keyed by order ID.
type KafkaSink struct {
	writer kafkaMessageWriter
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaSink creates a Kafka sink.
// bootstrap can be a comma-separated list of host:port.
func NewKafkaSink(bootstrap string, topic string) *KafkaSink {
	return &KafkaSink{writer: &kafka.Writer{
		Addr:         kafka.TCP(splitBrokers(bootstrap)...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

// NewKafkaSinkWith is only for tests to inject a fake writer.
func NewKafkaSinkWith(w kafkaMessageWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

func (k *KafkaSink) Append(e Entry) error {
	b, err := json.Marshal(&e)
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	return k.writer.WriteMessages(
		context.Background(),
		kafka.Message{Key: []byte(e.OrderInfo.OrderID), Value: b},
	)
}

func (k *KafkaSink) Close() error {
	if c, ok := k.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func splitBrokers(bootstrap string) []string {
	var brokers []string
	for _, a := range strings.Split(bootstrap, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			brokers = append(brokers, a)
		}
	}
	return brokers
}
