package quality

import (
	"fmt"
	"io"
	"sort"
)

// PrintReport renders a report for the console.
func PrintReport(w io.Writer, r *Report, pairs []string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "fx-data Validation Report")
	fmt.Fprintln(w, "============================================================")
	fmt.Fprintf(w, "Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	for _, pair := range pairs {
		data, ok := r.Pairs[pair]
		if !ok {
			continue
		}
		if data.Status == "no_data" {
			fmt.Fprintf(w, "  %s: No data\n\n", pair)
			continue
		}

		fmt.Fprintf(w, "  %s\n", pair)
		fmt.Fprintf(w, "    Bars: %d\n", data.TotalBars)
		if data.DateRange != nil {
			fmt.Fprintf(w, "    Range: %s → %s\n",
				data.DateRange.Start.Format("2006-01-02"),
				data.DateRange.End.Format("2006-01-02"))
		}

		c := data.Checks
		if c == nil {
			fmt.Fprintln(w)
			continue
		}
		fmt.Fprintf(w, "    Completeness: %.2f%% (%d / %d)\n",
			c.Completeness.Percent, c.Completeness.Actual, c.Completeness.Expected)
		fmt.Fprintf(w, "    Duplicates: %s\n", passFail(c.Duplicates))
		fmt.Fprintf(w, "    OHLC Integrity: %s\n", passFail(c.OHLCIntegrity))
		fmt.Fprintf(w, "    Zero Volume: %d\n", c.ZeroVolume)
		fmt.Fprintf(w, "    Gaps > 5min: %d\n", c.Gaps.Count)
		fmt.Fprintf(w, "    Price Spikes > 5%%: %d\n", c.PriceSpikes.Count)

		years := make([]string, 0, len(c.YearlyRowCounts))
		for y := range c.YearlyRowCounts {
			years = append(years, y)
		}
		sort.Strings(years)
		for _, y := range years {
			fmt.Fprintf(w, "      %s: %d bars\n", y, c.YearlyRowCounts[y])
		}
		fmt.Fprintln(w)
	}
}

func passFail(c CountCheck) string {
	if c.Pass {
		return "OK"
	}
	return fmt.Sprintf("FAIL (%d)", c.Count)
}
