// Package telemetry keeps the per-level record of finished searches.
package telemetry

import (
	"sync"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Kind says which operation produced a record.
type Kind string

const (
	KindBest   Kind = "best"
	KindRanked Kind = "ranked"
)

// ParseKind accepts "best" or "ranked".
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindBest, KindRanked:
		return Kind(s), true
	}
	return "", false
}

// Record describes one completed search. Records are never changed once
// appended.
type Record struct {
	Level       int           `yaml:"level"`
	Kind        Kind          `yaml:"kind"`
	Fingerprint uint64        `yaml:"fingerprint"`
	Board       string        `yaml:"board"`
	Move        string        `yaml:"move"`
	Score       int           `yaml:"score"`
	Ranking     []string      `yaml:"ranking,omitempty"`
	PV          []string      `yaml:"pv,omitempty"`
	Depth       int           `yaml:"depth"`
	Nodes       uint64        `yaml:"nodes"`
	Lookups     uint64        `yaml:"lookups"`
	Hits        uint64        `yaml:"hits"`
	Elapsed     time.Duration `yaml:"elapsed"`
	Start       time.Time     `yaml:"start"`
}

// Filter selects records for View. The zero Filter selects everything.
type Filter struct {
	// Kind, if set, keeps only records of that kind.
	Kind Kind
	// Last, if positive, keeps only the most recent Last matching records.
	Last int
}

// Log is an append-only list of records in completion order. It is safe
// for concurrent use.
type Log struct {
	sync.RWMutex
	records []Record
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Append(r Record) {
	l.Lock()
	defer l.Unlock()
	l.records = append(l.records, r)
}

func (l *Log) Len() int {
	l.RLock()
	defer l.RUnlock()
	return len(l.records)
}

func (l *Log) Clear() {
	l.Lock()
	defer l.Unlock()
	l.records = nil
}

// View returns a copy of the records matching f, oldest first.
func (l *Log) View(f Filter) []Record {
	l.RLock()
	defer l.RUnlock()
	out := lo.Filter(l.records, func(r Record, _ int) bool {
		return f.Kind == "" || r.Kind == f.Kind
	})
	if f.Last > 0 && len(out) > f.Last {
		out = out[len(out)-f.Last:]
	}
	return out
}

// ToYAML renders records as a YAML list.
func ToYAML(records []Record) (string, error) {
	if len(records) == 0 {
		return "[]\n", nil
	}
	out, err := yaml.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
