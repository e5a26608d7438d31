package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"StockPulse/internal/collector"
	"StockPulse/internal/config"
	"StockPulse/internal/dashboard"
	"StockPulse/internal/metrics"
	"StockPulse/internal/model"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <TICKER...>",
	Short: "Fetch tickers, compute indicators and print the table",
	Long: `Fetch the recent history of each ticker, decorate it with indicator
columns and print the result.

Examples:
  stockpulse snapshot AAPL
  stockpulse snapshot aapl,msft --interval 60m --period 5d --sma 10,30 --tail 20
  stockpulse snapshot TSLA --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSnapshot,
}

var (
	snapInterval string
	snapPeriod   string
	snapSMA      string
	snapEMA      string
	snapFormat   string
	snapTail     int
	snapTimeout  time.Duration
)

func init() {
	rootCmd.AddCommand(snapshotCmd)

	f := snapshotCmd.Flags()
	f.StringVar(&snapInterval, "interval", "", "bar interval (default from config)")
	f.StringVar(&snapPeriod, "period", "", "look-back period (default from config)")
	f.StringVar(&snapSMA, "sma", "", "comma separated SMA windows (default from config)")
	f.StringVar(&snapEMA, "ema", "", "comma separated EMA windows (default from config)")
	f.StringVarP(&snapFormat, "format", "o", "table", "output format: table, csv or json")
	f.IntVar(&snapTail, "tail", 10, "print only the last N rows (0 prints all)")
	f.DurationVar(&snapTimeout, "timeout", 60*time.Second, "overall fetch timeout")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interval, period := cfg.Dashboard.Interval, cfg.Dashboard.Period
	if snapInterval != "" {
		if !collector.ValidInterval(snapInterval) {
			return fmt.Errorf("%w: interval %q not in %v", config.ErrInvalid, snapInterval, collector.Intervals)
		}
		interval = snapInterval
	}
	if snapPeriod != "" {
		if !collector.ValidPeriod(snapPeriod) {
			return fmt.Errorf("%w: period %q not in %v", config.ErrInvalid, snapPeriod, collector.Periods)
		}
		period = snapPeriod
	}

	params := cfg.Indicators
	if cmd.Flags().Changed("sma") {
		if params.SMAWindows, err = dashboard.ParseWindows(snapSMA); err != nil {
			return fmt.Errorf("--sma: %w", err)
		}
	}
	if cmd.Flags().Changed("ema") {
		if params.EMAWindows, err = dashboard.ParseWindows(snapEMA); err != nil {
			return fmt.Errorf("--ema: %w", err)
		}
	}

	tickers := config.ParseTickers(strings.Join(args, ","))
	if len(tickers) == 0 {
		return fmt.Errorf("%w: no tickers given", config.ErrInvalid)
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	rec := openRecorder(cfg)
	defer rec.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), snapTimeout)
	defer cancel()

	col := collector.NewCollector(fetcher, rec, metrics.New())
	snaps := col.CollectAll(ctx, tickers, interval, period, params)

	return writeSnapshots(cmd.OutOrStdout(), snaps, snapFormat, snapTail)
}

func writeSnapshots(w io.Writer, snaps []*collector.Snapshot, format string, tail int) error {
	switch format {
	case "table":
		return writeTable(w, snaps, tail)
	case "csv":
		return writeCSV(w, snaps, tail)
	case "json":
		return writeJSON(w, snaps, tail)
	default:
		return fmt.Errorf("unknown format %q (want table, csv or json)", format)
	}
}

var barColumns = []string{"open", "high", "low", "close", "volume"}

func header(d *model.DecoratedTable) []string {
	h := append([]string{"time"}, barColumns...)
	return append(h, d.Order...)
}

// rows flattens d into one string slice per bar, formatting values with format.
func rows(d *model.DecoratedTable, format func(float64) string) [][]string {
	cols := make([]model.Series, 0, len(barColumns)+len(d.Order))
	for _, name := range barColumns {
		s, _ := d.Field(name)
		cols = append(cols, s)
	}
	for _, name := range d.Order {
		cols = append(cols, d.Columns[name])
	}

	out := make([][]string, d.Len())
	for i, b := range d.Bars {
		row := make([]string, 0, len(cols)+1)
		row = append(row, b.Time.Format(time.RFC3339))
		for _, s := range cols {
			row = append(row, format(s[i]))
		}
		out[i] = row
	}
	return out
}

func writeTable(w io.Writer, snaps []*collector.Snapshot, tail int) error {
	for _, s := range snaps {
		if s.Empty() {
			fmt.Fprintf(w, "No Data for %s\n\n", s.Symbol)
			continue
		}
		d := s.Table.Tail(tail)

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.SetTitle(fmt.Sprintf("%s  %s / %s  (%d bars)", s.Symbol, s.Interval, s.Period, s.Table.Len()))

		hdr := header(d)
		headerRow := make(table.Row, len(hdr))
		for i, h := range hdr {
			headerRow[i] = h
		}
		t.AppendHeader(headerRow)

		configs := make([]table.ColumnConfig, 0, len(hdr))
		for i := 2; i <= len(hdr); i++ {
			configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight})
		}
		t.SetColumnConfigs(configs)

		for _, r := range rows(d, formatCell) {
			row := make(table.Row, len(r))
			for i, v := range r {
				row[i] = v
			}
			t.AppendRow(row)
		}
		t.Render()
		fmt.Fprintln(w)
	}
	return nil
}

func writeCSV(w io.Writer, snaps []*collector.Snapshot, tail int) error {
	cw := csv.NewWriter(w)
	wroteHeader := false
	for _, s := range snaps {
		if s.Empty() {
			continue
		}
		d := s.Table.Tail(tail)
		if !wroteHeader {
			if err := cw.Write(append([]string{"symbol"}, header(d)...)); err != nil {
				return err
			}
			wroteHeader = true
		}
		for _, r := range rows(d, formatRaw) {
			if err := cw.Write(append([]string{s.Symbol}, r...)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, snaps []*collector.Snapshot, tail int) error {
	out := make([]*collector.Snapshot, len(snaps))
	for i, s := range snaps {
		cp := *s
		if !s.Empty() {
			cp.Table = s.Table.Tail(tail)
		}
		out[i] = &cp
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func formatCell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatRaw(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
