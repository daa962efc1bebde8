package forecast

import "fmt"

// MinMaxScaler rescales each column independently to [0,1] using bounds fit
// once on the training set. Transform clamps values outside the fitted range
// so inference-time outliers never escape the unit interval.
type MinMaxScaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// FitScaler computes per-column bounds over the training rows.
func FitScaler(rows [][]float64) (*MinMaxScaler, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("fit scaler: empty input")
	}
	width := len(rows[0])
	s := &MinMaxScaler{
		Min: make([]float64, width),
		Max: make([]float64, width),
	}
	copy(s.Min, rows[0])
	copy(s.Max, rows[0])
	for _, row := range rows[1:] {
		if len(row) != width {
			return nil, fmt.Errorf("fit scaler: ragged row width %d, want %d", len(row), width)
		}
		for j, v := range row {
			if v < s.Min[j] {
				s.Min[j] = v
			}
			if v > s.Max[j] {
				s.Max[j] = v
			}
		}
	}
	return s, nil
}

// Width returns the number of columns the scaler was fit on.
func (s *MinMaxScaler) Width() int { return len(s.Min) }

// Transform maps a row into [0,1] per column, clamping out-of-range values.
// Columns with zero spread map to 0.
func (s *MinMaxScaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		spread := s.Max[j] - s.Min[j]
		if spread == 0 {
			out[j] = 0
			continue
		}
		x := (v - s.Min[j]) / spread
		if x < 0 {
			x = 0
		}
		if x > 1 {
			x = 1
		}
		out[j] = x
	}
	return out
}

// TransformAll applies Transform row-wise.
func (s *MinMaxScaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.Transform(row)
	}
	return out
}

// Inverse maps a scaled column value back to its original range.
func (s *MinMaxScaler) Inverse(col int, v float64) float64 {
	return s.Min[col] + v*(s.Max[col]-s.Min[col])
}

// Valid reports whether the scaler has consistent, usable bounds.
func (s *MinMaxScaler) Valid() bool {
	if s == nil || len(s.Min) == 0 || len(s.Min) != len(s.Max) {
		return false
	}
	for j := range s.Min {
		if s.Max[j] < s.Min[j] {
			return false
		}
	}
	return true
}
