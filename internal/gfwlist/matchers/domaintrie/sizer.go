package domaintrie

import "math"

// bloomSize computes Bloom filter parameters from capacity (n) and target
// false-positive rate (p):
//
//	m = - (n * ln p) / (ln 2)^2
//	k = (m / n) * ln 2
//
// Results are clamped to at least 1; an out-of-range p falls back to 1%.
func bloomSize(n uint64, p float64) (m uint64, k uint64) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = 0.01
	}
	ln2 := math.Ln2
	m = uint64(math.Ceil(-float64(n) * math.Log(p) / (ln2 * ln2)))
	if m == 0 {
		m = 1
	}
	k = uint64(math.Max(1, math.Round((float64(m)/float64(n))*ln2)))
	return m, k
}
