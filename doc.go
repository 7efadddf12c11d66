// Package leadrec recommends market entities that resemble an existing
// customer portfolio.
//
// Every market record is encoded into a document of attribute tokens, the
// documents are indexed as TF-IDF vectors, and a portfolio is answered with
// the unseen entries whose mean cosine similarity to the portfolio is
// highest.
//
// # Quick Start
//
//	table, _ := dataset.ReadCSVFile("market.csv", "id")
//	rec, _ := leadrec.Fit(ctx, table)
//
//	recs, stats, _ := rec.Predict(ctx, []string{"a1", "b7"}, 100)
//	fmt.Println(stats) // e.g. 2/2 portfolio ids found
//
// # Evaluation
//
// Evaluate holds out a share of every portfolio, queries with the rest and
// reports the share of held-out ids among the recommendations:
//
//	reports, _ := rec.Evaluate(ctx, portfolios, evaluate.WithTestFraction(0.3))
//	fmt.Println(evaluate.Summarize(reports).MeanHitRate)
//
// # Persistence
//
// A fitted model is one artifact holding vocabulary, weights, the sparse
// matrix, ids, contents, parameters and schema:
//
//	_ = rec.SaveFile(ctx, "model.lrm")
//	rec, _ = leadrec.LoadFile(ctx, "model.lrm")
//
// Models can also be published to a blob store and loaded back by a
// different process:
//
//	reg := leadrec.NewRegistry(blobstore.NewLocalStore("./models"))
//	_, _ = rec.Publish(ctx, reg)
//	rec, _ = leadrec.LoadCurrent(ctx, reg)
package leadrec
