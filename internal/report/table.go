package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sawpanic/momentumscore/internal/algo/momentum"
	"github.com/sawpanic/momentumscore/internal/application/batch"
)

// Format selects the rendering of command output.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table or json)", s)
	}
}

// Bar is one row of a scored series.
type Bar struct {
	Index      int     `json:"index"`
	Close      float64 `json:"close"`
	Upper      float64 `json:"band_upper"`
	Mid        float64 `json:"band_mid"`
	Lower      float64 `json:"band_lower"`
	Band       float64 `json:"score_band"`
	Oscillator float64 `json:"score_oscillator"`
	Impulse    float64 `json:"score_impulse"`
	Momentum   float64 `json:"score_momentum"`
}

// LastBars returns the final n bars of a scored series. n <= 0 returns all.
func LastBars(prices []float64, s *momentum.IndicatorSeries, n int) []Bar {
	total := len(prices)
	start := 0
	if n > 0 && n < total {
		start = total - n
	}
	bars := make([]Bar, 0, total-start)
	for i := start; i < total; i++ {
		bars = append(bars, Bar{
			Index:      i,
			Close:      prices[i],
			Upper:      momentum.At(s.BandUpper, i, 0),
			Mid:        momentum.At(s.BandMid, i, 0),
			Lower:      momentum.At(s.BandLower, i, 0),
			Band:       momentum.At(s.ScoreBand, i, 0),
			Oscillator: momentum.At(s.ScoreOscillator, i, 0),
			Impulse:    momentum.At(s.ScoreImpulse, i, 0),
			Momentum:   momentum.At(s.ScoreMomentum, i, 0),
		})
	}
	return bars
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func rightAligned(cols ...int) []table.ColumnConfig {
	out := make([]table.ColumnConfig, 0, len(cols))
	for _, c := range cols {
		out = append(out, table.ColumnConfig{Number: c, Align: text.AlignRight})
	}
	return out
}

// WriteBars renders bars as a table.
func WriteBars(w io.Writer, symbol string, s *momentum.IndicatorSeries, bars []Bar) {
	t := newTable(w, fmt.Sprintf("%s  ref horizon %d  ml %s", symbol, s.ReferenceHorizon, s.ML.Gate))
	t.AppendHeader(table.Row{"Bar", "Close", "Upper", "Mid", "Lower", "Band", "Osc", "Impulse", "Momentum"})
	for _, b := range bars {
		t.AppendRow(table.Row{
			b.Index,
			fmt.Sprintf("%.4f", b.Close),
			fmt.Sprintf("%.4f", b.Upper),
			fmt.Sprintf("%.4f", b.Mid),
			fmt.Sprintf("%.4f", b.Lower),
			fmt.Sprintf("%.1f", b.Band),
			fmt.Sprintf("%.1f", b.Oscillator),
			fmt.Sprintf("%.1f", b.Impulse),
			fmt.Sprintf("%.1f", b.Momentum),
		})
	}
	t.SetColumnConfigs(rightAligned(1, 2, 3, 4, 5, 6, 7, 8, 9))
	t.Render()
}

// WriteSummary renders a batch summary as a table.
func WriteSummary(w io.Writer, s *batch.Summary) {
	t := newTable(w, fmt.Sprintf("run %s", s.RunID))
	t.AppendHeader(table.Row{"Symbol", "Bars", "Band", "Osc", "Impulse", "Momentum", "ML", "Error"})
	for _, r := range s.Results {
		if r.Err != nil {
			t.AppendRow(table.Row{r.Symbol, r.Length, "", "", "", "", "", r.Error})
			continue
		}
		t.AppendRow(table.Row{
			r.Symbol,
			r.Length,
			fmt.Sprintf("%.1f", r.Band),
			fmt.Sprintf("%.1f", r.Oscillator),
			fmt.Sprintf("%.1f", r.Impulse),
			fmt.Sprintf("%.1f", r.Momentum),
			r.Gate,
			"",
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "failed", s.Failed})
	t.SetColumnConfigs(rightAligned(2, 3, 4, 5, 6))
	t.Render()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
