package run

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"fx-data/internal/app"
	"fx-data/internal/catalog"
)

// PrintStatus renders the per-pair catalog summary plus on-disk storage
// sizes.
func PrintStatus(w io.Writer, cfg *app.Config, cat *catalog.Catalog) {
	summary := cat.Summary(cfg.Pairs)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "fx-data Status Report")
	fmt.Fprintln(w, strings.Repeat("=", 75))
	fmt.Fprintf(w, "%-10s %-14s %-14s %9s %9s %8s %8s\n",
		"Pair", "Oldest Data", "Newest Data", "Fetched", "No Data", "Errors", "Total")
	fmt.Fprintln(w, strings.Repeat("-", 75))

	var total catalog.PairSummary
	for _, pair := range cfg.Pairs {
		s := summary[pair]
		fmt.Fprintf(w, "%-10s %-14s %-14s %9d %9d %8d %8d\n",
			pair, orDash(s.Oldest), orDash(s.Newest),
			s.Fetched, s.NoData, s.Errors, s.Total)
		total.Fetched += s.Fetched
		total.NoData += s.NoData
		total.Errors += s.Errors
		total.Total += s.Total
	}
	fmt.Fprintln(w, strings.Repeat("-", 75))
	fmt.Fprintf(w, "%-10s %-14s %-14s %9d %9d %8d %8d\n",
		"TOTAL", "", "", total.Fetched, total.NoData, total.Errors, total.Total)
	fmt.Fprintln(w)

	if size, ok := dirSize(cfg.BarDir(), ".parquet"); ok {
		fmt.Fprintf(w, "Bar storage: %.1f MB\n", float64(size)/(1024*1024))
	}
	if size, ok := dirSize(cfg.RawDir(), ".bi5"); ok {
		fmt.Fprintf(w, "Raw feed storage: %.1f MB\n", float64(size)/(1024*1024))
	}
	fmt.Fprintln(w)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// dirSize sums the sizes of files with ext under root. ok is false when the
// directory does not exist.
func dirSize(root, ext string) (int64, bool) {
	if _, err := os.Stat(root); err != nil {
		return 0, false
	}
	var size int64
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ext) {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size, true
}
