package forecast

// DefaultWindow is the sequence length fed to the regressor.
const DefaultWindow = 14

// MakeWindows slices scaled feature rows into overlapping sequences. Window i
// covers rows [i-w, i) and is labeled with target[i], so windows slide by one
// row and overlap by w-1. At least w+1 rows are required to produce a single
// window.
func MakeWindows(rows [][]float64, targets []float64, w int) (seqs [][][]float64, labels []float64) {
	if w <= 0 || len(rows) <= w || len(rows) != len(targets) {
		return nil, nil
	}
	for i := w; i < len(rows); i++ {
		seqs = append(seqs, rows[i-w:i])
		labels = append(labels, targets[i])
	}
	return seqs, labels
}

// LatestWindow returns the trailing w rows for inference, or false when the
// history is too short and the caller must use the fallback path. Inference
// needs the same w+1 rows that producing a single training window does, so a
// history of exactly w rows is rejected.
func LatestWindow(rows [][]float64, w int) ([][]float64, bool) {
	if w <= 0 || len(rows) <= w {
		return nil, false
	}
	return rows[len(rows)-w:], true
}
