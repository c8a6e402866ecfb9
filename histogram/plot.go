package histogram

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	gbdterrors "github.com/flowforge/gbdt/pkg/errors"
)

// PlotBinCounts renders a bar chart of h's per-bin row counts to path, for
// inspecting histogram shape (skew, empty bins) while debugging a split
// decision. Not on any training code path.
func PlotBinCounts(h *FeatureHistogram, title, path string) error {
	values := make(plotter.Values, len(h.bins))
	for i, b := range h.bins {
		values[i] = float64(b.Count)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "bin"
	p.Y.Label.Text = "count"

	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return gbdterrors.NewIOError("PlotBinCounts", "building bar chart", err)
	}
	p.Add(bars)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return gbdterrors.NewIOError("PlotBinCounts", "saving plot", err)
	}
	return nil
}
