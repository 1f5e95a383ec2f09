package preview

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/prism/remesh"
	"github.com/soypat/prism/validity"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const histogramBins = 32

// QualityHistogram saves a histogram of log10 triangle qualities to file.
// Degenerate triangles (infinite quality) are counted in the last bin.
// The image format follows the file extension.
func QualityHistogram(qualities []float64, file string) error {
	p, err := qualityPlot(qualities)
	if err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, file)
}

func qualityPlot(qualities []float64) (*plot.Plot, error) {
	if len(qualities) == 0 {
		return nil, errors.New("no qualities to plot")
	}
	worst := 0.0
	for _, q := range qualities {
		if !math.IsInf(q, 1) {
			worst = math.Max(worst, q)
		}
	}
	vals := make(plotter.Values, len(qualities))
	for i, q := range qualities {
		if math.IsInf(q, 1) || math.IsNaN(q) {
			q = math.Max(worst, 1)
		}
		vals[i] = math.Log10(q)
	}
	h, err := plotter.NewHist(vals, histogramBins)
	if err != nil {
		return nil, err
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Mid triangle quality (%d faces)", len(qualities))
	p.X.Label.Text = "log10 quality (0 is equilateral)"
	p.Y.Label.Text = "Faces"
	p.Add(h)
	return p, nil
}

// RejectionChart saves a bar chart of the accepted edits and the rejections
// by reason summed over stats.
func RejectionChart(stats []remesh.Stats, file string) error {
	p, err := rejectionPlot(stats)
	if err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, file)
}

func rejectionPlot(stats []remesh.Stats) (*plot.Plot, error) {
	if len(stats) == 0 {
		return nil, errors.New("no pass statistics to plot")
	}
	var total remesh.Stats
	for _, st := range stats {
		total.Add(st)
	}
	names := []string{"accepted"}
	vals := plotter.Values{float64(total.Accepted)}
	for r := validity.Reason(1); int(r) < validity.NumReasons; r++ {
		names = append(names, r.String())
		vals = append(vals, float64(total.Rejected[r]))
	}
	names = append(names, "topology", "abandoned")
	vals = append(vals, float64(total.TopologyFailures), float64(total.ProjectionFailures))

	bars, err := plotter.NewBarChart(vals, vg.Points(20))
	if err != nil {
		return nil, err
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Remeshing outcomes over %d passes", len(stats))
	p.Y.Label.Text = "Edits"
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}
