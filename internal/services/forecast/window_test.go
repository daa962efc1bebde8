package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsWithTargets(n int) ([][]float64, []float64) {
	rows := make([][]float64, n)
	targets := make([]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = []float64{float64(i)}
		targets[i] = float64(i) / 100
	}
	return rows, targets
}

func TestMakeWindowsAlignment(t *testing.T) {
	rows, targets := rowsWithTargets(20)
	seqs, labels := MakeWindows(rows, targets, 5)

	require.Len(t, seqs, 15)
	require.Len(t, labels, 15)

	// Window 0 covers rows [0,5) and is labeled with target[5]: the model
	// always predicts one step past what it has seen.
	assert.Equal(t, rows[0], seqs[0][0])
	assert.Equal(t, rows[4], seqs[0][4])
	assert.Equal(t, targets[5], labels[0])
	assert.Equal(t, targets[19], labels[14])
}

func TestMakeWindowsTooShort(t *testing.T) {
	rows, targets := rowsWithTargets(5)
	seqs, labels := MakeWindows(rows, targets, 5)
	assert.Nil(t, seqs)
	assert.Nil(t, labels)

	seqs, labels = MakeWindows(rows, targets, 0)
	assert.Nil(t, seqs)
	assert.Nil(t, labels)
}

func TestMakeWindowsMismatchedTargets(t *testing.T) {
	rows, targets := rowsWithTargets(10)
	seqs, _ := MakeWindows(rows, targets[:9], 3)
	assert.Nil(t, seqs)
}

func TestLatestWindow(t *testing.T) {
	rows, _ := rowsWithTargets(10)

	w, ok := LatestWindow(rows, 4)
	require.True(t, ok)
	require.Len(t, w, 4)
	assert.Equal(t, rows[6], w[0])
	assert.Equal(t, rows[9], w[3])

	_, ok = LatestWindow(rows, 11)
	assert.False(t, ok)
	_, ok = LatestWindow(rows, 10)
	assert.False(t, ok)
	_, ok = LatestWindow(rows, 0)
	assert.False(t, ok)
}
