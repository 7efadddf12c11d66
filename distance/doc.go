// Package distance provides the similarity arithmetic for sparse TF-IDF rows.
//
// Rows are stored as float32 values but every accumulation happens in
// float64, in ascending column order, so the same pair of rows always
// yields the same bits.
//
// # Usage
//
//	dot := distance.SparseDot(ai, av, bi, bv)
//	sim := distance.Cosine(dot, distance.SquaredNorm(av), distance.SquaredNorm(bv))
//	distance.NormalizeL2InPlace(values)
package distance
