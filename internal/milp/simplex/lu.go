package simplex

import "math"

// entry is one nonzero of a factor column. In L columns idx is an original
// row index; in U columns it is a pivot position.
type entry struct {
	idx int
	val float64
}

// factor is a sparse LU factorization of a basis matrix with partial
// pivoting: P*B = L*U with L unit lower triangular in pivot order. Columns of
// L carry original row indices, columns of U carry pivot positions, so both
// triangular solves run without any dense matrix.
type factor struct {
	m     int
	perm  []int // perm[k] = original row pivoted at position k
	pinv  []int // original row -> pivot position
	lcols [][]entry
	ucols [][]entry
	udiag []float64

	z []float64 // dense scratch
}

// factorize builds the LU of the basis given by its columns. cols[k] lists
// the nonzeros of basis column k by original row index.
func factorize(m int, cols [][]Entry) (*factor, error) {
	f := &factor{
		m:     m,
		perm:  make([]int, m),
		pinv:  make([]int, m),
		lcols: make([][]entry, m),
		ucols: make([][]entry, m),
		udiag: make([]float64, m),
		z:     make([]float64, m),
	}
	for i := range f.pinv {
		f.pinv[i] = -1
	}

	w := make([]float64, m)
	seen := make([]bool, m)
	touched := make([]int, 0, m)

	for k := 0; k < m; k++ {
		for _, e := range cols[k] {
			if !seen[e.Index] {
				seen[e.Index] = true
				touched = append(touched, e.Index)
			}
			w[e.Index] += e.Value
		}

		// Eliminate with the columns already pivoted, in pivot order.
		for j := 0; j < k; j++ {
			p := f.perm[j]
			if !seen[p] || w[p] == 0 {
				continue
			}
			xp := w[p]
			for _, le := range f.lcols[j] {
				if !seen[le.idx] {
					seen[le.idx] = true
					touched = append(touched, le.idx)
				}
				w[le.idx] -= le.val * xp
			}
		}

		piv, pmax := -1, 0.0
		for _, r := range touched {
			if f.pinv[r] >= 0 {
				continue
			}
			if a := math.Abs(w[r]); a > pmax {
				piv, pmax = r, a
			}
		}
		if piv < 0 || pmax < 1e-12 {
			return nil, ErrNumerical
		}

		for _, r := range touched {
			v := w[r]
			if v == 0 {
				continue
			}
			switch {
			case f.pinv[r] >= 0:
				f.ucols[k] = append(f.ucols[k], entry{f.pinv[r], v})
			case r != piv:
				f.lcols[k] = append(f.lcols[k], entry{r, v / w[piv]})
			}
		}
		f.udiag[k] = w[piv]
		f.perm[k] = piv
		f.pinv[piv] = k

		for _, r := range touched {
			w[r] = 0
			seen[r] = false
		}
		touched = touched[:0]
	}
	return f, nil
}

// solve computes B*out = v with v indexed by original row and out by basis
// slot. v is left unchanged.
func (f *factor) solve(v, out []float64) {
	copy(f.z, v)
	for j := 0; j < f.m; j++ {
		xp := f.z[f.perm[j]]
		if xp == 0 {
			continue
		}
		for _, le := range f.lcols[j] {
			f.z[le.idx] -= le.val * xp
		}
	}
	for j := 0; j < f.m; j++ {
		out[j] = f.z[f.perm[j]]
	}
	for k := f.m - 1; k >= 0; k-- {
		out[k] /= f.udiag[k]
		for _, ue := range f.ucols[k] {
			out[ue.idx] -= ue.val * out[k]
		}
	}
}

// solveT computes Bᵀ*y = d with d indexed by basis slot and y by original
// row. d is consumed as scratch.
func (f *factor) solveT(d, y []float64) {
	g := f.z
	for k := 0; k < f.m; k++ {
		s := d[k]
		for _, ue := range f.ucols[k] {
			s -= ue.val * g[ue.idx]
		}
		g[k] = s / f.udiag[k]
	}
	for j := f.m - 1; j >= 0; j-- {
		s := g[j]
		for _, le := range f.lcols[j] {
			s -= le.val * g[f.pinv[le.idx]]
		}
		g[j] = s
	}
	for j := 0; j < f.m; j++ {
		y[f.perm[j]] = g[j]
	}
}
