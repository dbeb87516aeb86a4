package quality

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx-data/internal/model"
	"fx-data/internal/slogx"
)

// memSource serves canned bar histories per pair.
type memSource map[string][]model.Bar

func (m memSource) ReadPair(pair string) ([]model.Bar, error) {
	return m[pair], nil
}

func mkBar(ts time.Time, o, h, l, c, v float64) model.Bar {
	return model.Bar{
		Timestamp: ts, Open: o, High: h, Low: l, Close: c, Volume: v,
		Source: "dukascopy", BarHash: "x",
	}
}

// contiguous returns n flat 1-minute bars starting at ts.
func contiguous(ts time.Time, n int) []model.Bar {
	bars := make([]model.Bar, n)
	for i := range bars {
		bars[i] = mkBar(ts.Add(time.Duration(i)*time.Minute), 1.1, 1.1, 1.1, 1.1, 1)
	}
	return bars
}

func runEngine(t *testing.T, src Source, pairs []string) *Report {
	t.Helper()
	e := NewEngine(src, pairs, slogx.NewDefault("error"))
	report, err := e.ValidateAll(filepath.Join(t.TempDir(), "report.json"))
	require.NoError(t, err)
	return report
}

func TestValidateAllNoData(t *testing.T) {
	report := runEngine(t, memSource{}, []string{"EURUSD"})
	assert.Equal(t, "no_data", report.Pairs["EURUSD"].Status)
}

func TestValidateAllCleanData(t *testing.T) {
	// Wednesday 2024-03-13, one contiguous hour.
	start := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	report := runEngine(t, memSource{"EURUSD": contiguous(start, 60)}, []string{"EURUSD"})

	p := report.Pairs["EURUSD"]
	require.NotNil(t, p.Checks)
	assert.Equal(t, 60, p.TotalBars)
	assert.True(t, p.Checks.Duplicates.Pass)
	assert.True(t, p.Checks.OHLCIntegrity.Pass)
	assert.Zero(t, p.Checks.Gaps.Count)
	assert.Equal(t, 100.0, p.Checks.Completeness.Percent)
	assert.Equal(t, []string{"dukascopy"}, p.Checks.Sources)
	assert.True(t, p.Checks.BarHashNulls.Pass)
	assert.Equal(t, map[string]int{"2024": 60}, p.Checks.YearlyRowCounts)
}

func TestGapInsideSaturdayNotReported(t *testing.T) {
	// Bars either side of a 10-minute hole entirely inside Saturday.
	sat := time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC)
	bars := []model.Bar{
		mkBar(sat, 1.1, 1.1, 1.1, 1.1, 1),
		mkBar(sat.Add(10*time.Minute), 1.1, 1.1, 1.1, 1.1, 1),
	}
	report := runEngine(t, memSource{"EURUSD": bars}, []string{"EURUSD"})
	assert.Zero(t, report.Pairs["EURUSD"].Checks.Gaps.Count)
}

func TestGapOnWednesdayReported(t *testing.T) {
	wed := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	bars := []model.Bar{
		mkBar(wed, 1.1, 1.1, 1.1, 1.1, 1),
		mkBar(wed.Add(10*time.Minute), 1.1, 1.1, 1.1, 1.1, 1),
	}
	report := runEngine(t, memSource{"EURUSD": bars}, []string{"EURUSD"})

	g := report.Pairs["EURUSD"].Checks.Gaps
	require.Equal(t, 1, g.Count)
	require.Len(t, g.Examples, 1)
	assert.Equal(t, wed, g.Examples[0].From)
	assert.Equal(t, 10, g.Examples[0].Minutes)
}

func TestWeekendGapBetweenSessionsNotReported(t *testing.T) {
	// Last bar Friday 21:59, first bar Sunday 22:00: the weekly closure.
	fri := time.Date(2024, 3, 15, 21, 59, 0, 0, time.UTC)
	sun := time.Date(2024, 3, 17, 22, 0, 0, 0, time.UTC)
	bars := []model.Bar{
		mkBar(fri, 1.1, 1.1, 1.1, 1.1, 1),
		mkBar(sun, 1.1, 1.1, 1.1, 1.1, 1),
	}
	report := runEngine(t, memSource{"EURUSD": bars}, []string{"EURUSD"})
	assert.Zero(t, report.Pairs["EURUSD"].Checks.Gaps.Count)
}

func TestDuplicateAndBadOHLCDetected(t *testing.T) {
	wed := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	bars := []model.Bar{
		mkBar(wed, 1.1, 1.2, 1.0, 1.15, 1),
		mkBar(wed, 1.1, 1.2, 1.0, 1.15, 1),                     // duplicate minute
		mkBar(wed.Add(time.Minute), 1.1, 1.05, 1.0, 1.02, 0),   // high < open, zero volume
	}
	report := runEngine(t, memSource{"EURUSD": bars}, []string{"EURUSD"})

	c := report.Pairs["EURUSD"].Checks
	assert.Equal(t, 1, c.Duplicates.Count)
	assert.False(t, c.Duplicates.Pass)
	assert.Equal(t, 1, c.OHLCIntegrity.Count)
	assert.Equal(t, 1, c.ZeroVolume)
}

func TestPriceSpikeSameDayOnly(t *testing.T) {
	wed := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	thu := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	bars := []model.Bar{
		mkBar(wed, 1.0, 1.0, 1.0, 1.0, 1),
		mkBar(wed.Add(time.Minute), 1.2, 1.2, 1.2, 1.2, 1), // +20% intraday
		mkBar(wed.Add(2*time.Minute), 1.2, 1.2, 1.2, 1.2, 1),
		mkBar(thu, 2.0, 2.0, 2.0, 2.0, 1), // big jump but across days
	}
	report := runEngine(t, memSource{"EURUSD": bars}, []string{"EURUSD"})

	s := report.Pairs["EURUSD"].Checks.PriceSpikes
	require.Equal(t, 1, s.Count)
	assert.Equal(t, wed.Add(time.Minute), s.Examples[0].Timestamp)
	assert.Equal(t, 1.0, s.Examples[0].PrevClose)
	assert.Equal(t, 1.2, s.Examples[0].Open)
}

func TestReportWrittenToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	e := NewEngine(memSource{}, []string{"EURUSD"}, slogx.NewDefault("error"))
	_, err := e.ValidateAll(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "no_data", decoded.Pairs["EURUSD"].Status)
}

func TestPrintReportRenders(t *testing.T) {
	start := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	report := runEngine(t, memSource{"EURUSD": contiguous(start, 5)}, []string{"EURUSD"})

	var buf bytes.Buffer
	PrintReport(&buf, report, []string{"EURUSD"})
	out := buf.String()
	assert.Contains(t, out, "EURUSD")
	assert.Contains(t, out, "Bars: 5")
	assert.Contains(t, out, "Duplicates: OK")
}
