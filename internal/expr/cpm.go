package expr

// CPM returns a copy of m with every sample scaled to counts per million:
// each value is divided by its sample total and multiplied by 1e6.
// Samples whose total is zero stay zero.
func CPM(m *Matrix) *Matrix {
	totals := make([]float64, len(m.samples))
	for _, row := range m.rows {
		for j, v := range row {
			totals[j] += v
		}
	}

	out := &Matrix{
		samples: m.samples,
		genes:   m.genes,
		tags:    m.tags,
		index:   m.index,
		rows:    make([][]float64, len(m.rows)),
	}
	for i, row := range m.rows {
		scaled := make([]float64, len(row))
		for j, v := range row {
			if totals[j] > 0 {
				scaled[j] = v / totals[j] * 1e6
			}
		}
		out.rows[i] = scaled
	}
	return out
}
