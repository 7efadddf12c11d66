// Package testutil provides helpers for tests and benchmarks.
//
// It generates synthetic market tables whose records cluster around a few
// archetypes, draws portfolios from those clusters, and computes exact
// reference rankings to check the ranker against.
//
//	rng := testutil.NewRNG(42)
//	table, clusters := rng.Market(schema.MustDefault(), testutil.MarketConfig{Records: 500})
//	portfolio := rng.Portfolio(table, clusters, 0, 20)
package testutil
