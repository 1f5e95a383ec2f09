package preview

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/prism/internal/shelltest"
	"github.com/soypat/prism/remesh"
	"github.com/soypat/prism/validity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/cmpimg"
)

func TestLayerToPNG(t *testing.T) {
	V, F := shelltest.Grid(5, 0.25)
	out := filepath.Join(t.TempDir(), "layer.png")
	view := DefaultView()
	view.Width, view.Height, view.Scale = 64, 36, 2
	require.NoError(t, LayerToPNG(V, F, out, view))

	fp, err := os.Open(out)
	require.NoError(t, err)
	defer fp.Close()
	img, err := png.Decode(fp)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 36, img.Bounds().Dy())
}

func TestSTLToPNGErrors(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, STLToPNG(filepath.Join(dir, "missing.stl"), filepath.Join(dir, "out.png"), DefaultView()))
	V, F := shelltest.Grid(2, 1)
	view := DefaultView()
	view.Width = 0
	assert.Error(t, LayerToPNG(V, F, filepath.Join(dir, "out.png"), view))
}

func TestQualityHistogram(t *testing.T) {
	dir := t.TempDir()
	q := []float64{1, 1.1, 1.15, 2, 40, math.Inf(1)}
	a, b := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")
	require.NoError(t, QualityHistogram(q, a))
	require.NoError(t, QualityHistogram(q, b))
	equalFiles(t, a, b)

	assert.Error(t, QualityHistogram(nil, a))
}

func TestRejectionChart(t *testing.T) {
	var st remesh.Stats
	st.Accepted = 12
	st.Rejected[validity.Intersection] = 3
	st.Rejected[validity.Distortion] = 5
	st.ProjectionFailures = 1
	p, err := rejectionPlot([]remesh.Stats{st, st})
	require.NoError(t, err)
	assert.Contains(t, p.Title.Text, "2 passes")

	out := filepath.Join(t.TempDir(), "rejections.png")
	require.NoError(t, RejectionChart([]remesh.Stats{st}, out))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	_, err = rejectionPlot(nil)
	assert.Error(t, err)
}

func equalFiles(t *testing.T, a, b string) {
	t.Helper()
	ba, err := os.ReadFile(a)
	require.NoError(t, err)
	bb, err := os.ReadFile(b)
	require.NoError(t, err)
	equal, err := cmpimg.Equal("png", ba, bb)
	require.NoError(t, err)
	assert.True(t, equal, "%s and %s differ", a, b)
}
