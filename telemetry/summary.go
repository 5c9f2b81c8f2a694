package telemetry

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"
)

const histogramBins = 10

// Summary aggregates a set of records.
type Summary struct {
	Count         int
	TotalNodes    uint64
	MeanNodes     float64
	StdDevNodes   float64
	MeanElapsed   time.Duration
	StdDevElapsed time.Duration
	MedianElapsed time.Duration
	MaxDepth      int
	HitRate       float64
	// elapsed times in milliseconds
	elapsedMs []float64
}

// Summarize computes statistics over the records selected by f.
func (l *Log) Summarize(f Filter) Summary {
	return Summarize(l.View(f))
}

func Summarize(records []Record) Summary {
	s := Summary{Count: len(records)}
	if len(records) == 0 {
		return s
	}
	nodes := lo.Map(records, func(r Record, _ int) float64 { return float64(r.Nodes) })
	s.elapsedMs = lo.Map(records, func(r Record, _ int) float64 {
		return float64(r.Elapsed) / float64(time.Millisecond)
	})
	s.MeanNodes, s.StdDevNodes = stat.MeanStdDev(nodes, nil)
	meanMs, stdMs := stat.MeanStdDev(s.elapsedMs, nil)
	if len(records) == 1 {
		// the sample deviation of one value is undefined
		s.StdDevNodes, stdMs = 0, 0
	}
	s.MeanElapsed = msToDuration(meanMs)
	s.StdDevElapsed = msToDuration(stdMs)

	sorted := append([]float64(nil), s.elapsedMs...)
	sort.Float64s(sorted)
	s.MedianElapsed = msToDuration(stat.Quantile(0.5, stat.Empirical, sorted, nil))

	var lookups, hits uint64
	for _, r := range records {
		s.TotalNodes += r.Nodes
		s.MaxDepth = max(s.MaxDepth, r.Depth)
		lookups += r.Lookups
		hits += r.Hits
	}
	if lookups > 0 {
		s.HitRate = float64(hits) / float64(lookups)
	}
	return s
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// Fprint writes a human-readable summary, including a histogram of elapsed
// times when there is more than one record.
func (s Summary) Fprint(w io.Writer) error {
	p := message.NewPrinter(language.English)
	if s.Count == 0 {
		_, err := fmt.Fprintln(w, "no searches recorded")
		return err
	}
	p.Fprintf(w, "searches:      %d\n", s.Count)
	p.Fprintf(w, "total nodes:   %d\n", s.TotalNodes)
	p.Fprintf(w, "nodes:         %.0f ± %.0f\n", s.MeanNodes, s.StdDevNodes)
	p.Fprintf(w, "elapsed:       %v ± %v (median %v)\n",
		s.MeanElapsed.Round(time.Microsecond), s.StdDevElapsed.Round(time.Microsecond),
		s.MedianElapsed.Round(time.Microsecond))
	p.Fprintf(w, "deepest:       %d\n", s.MaxDepth)
	p.Fprintf(w, "cache hits:    %.1f%%\n", 100*s.HitRate)
	if s.Count < 2 {
		return nil
	}
	fmt.Fprintln(w, "elapsed (ms):")
	hist := histogram.Hist(histogramBins, s.elapsedMs)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}
