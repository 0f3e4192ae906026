package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

// Sink receives finished report tables.
type Sink interface {
	Write(ctx context.Context, table domain.Table) error
}

// Close flushes sinks that buffer output.
func Close(s Sink) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type multiSink []Sink

// Multi fans tables out to every sink.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Write(ctx context.Context, table domain.Table) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, table); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := Close(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemorySink keeps tables in memory.
type MemorySink struct {
	mu     sync.Mutex
	tables []domain.Table
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Write(_ context.Context, table domain.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = append(m.tables, table)
	return nil
}

// Tables returns the tables written so far.
func (m *MemorySink) Tables() []domain.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Table(nil), m.tables...)
}

// Find returns the first table matching kind, period and name.
func (m *MemorySink) Find(kind domain.TableKind, period, name string, sortedBy domain.Metric) (domain.Table, bool) {
	for _, t := range m.Tables() {
		if t.Kind == kind && t.Period == period && t.Name == name && t.SortedBy == sortedBy {
			return t, true
		}
	}
	return domain.Table{}, false
}

// RelativePath is the slash separated location of a table inside an output
// tree, shared by file and object storage sinks.
func RelativePath(t domain.Table) string {
	name := Slug(t.Name)
	switch t.Kind {
	case domain.TableKindTimeSeries:
		return path.Join("time-series", string(t.Category), name, "by-"+Slug(t.SortedBy.Name())+".csv")
	case domain.TableKindDistribution:
		return path.Join("time-periods", Slug(t.Period), string(t.Category), "_distributions", name+".csv")
	case domain.TableKindZScores:
		return path.Join("time-periods", Slug(t.Period), string(t.Category), "_zscores", name+".csv")
	default:
		return path.Join("time-periods", Slug(t.Period), string(t.Category), name, "by-"+Slug(t.SortedBy.Name())+".csv")
	}
}

// Slug lowercases s and replaces anything but letters and digits with dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func describe(t domain.Table) string {
	return fmt.Sprintf("%s/%s/%s", t.Category, t.Period, t.Name)
}
