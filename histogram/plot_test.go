package histogram_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/gbdt/histogram"
)

func TestPlotBinCountsWritesAFile(t *testing.T) {
	fh := histogram.New(0, 4)
	fh.ConstructDense([]int{0, 1, 2, 3, 4, 5, 6, 7}, binDataAdapter{bins: []int{0, 0, 1, 1, 2, 2, 3, 3}},
		[]float64{1, 1, 1, 1, 1, 1, 1, 1}, []float64{1, 1, 1, 1, 1, 1, 1, 1})

	path := filepath.Join(t.TempDir(), "hist.png")
	err := histogram.PlotBinCounts(fh, "test histogram", path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
