// Package model defines the core types shared by every leadrec package.
//
// # Data Types
//
//   - Corpus: index-aligned ids and synthesized content strings
//   - Recommendation: a market id with its averaged similarity score
//   - MatchStats: how many portfolio ids resolved against the model
//
// # Errors
//
// The error taxonomy is defined here so that the encoder, the vectorizer,
// the ranker and the evaluator report failures the same way:
//
//   - SchemaError: an expected column is missing or malformed (errors.Is ErrSchema)
//   - ConfigError: a parameter is out of range (errors.Is ErrConfig)
//   - EmptyProfileError: no portfolio id resolved (errors.Is ErrEmptyProfile)
package model
