package tfidf

import (
	"fmt"
	"math"

	"github.com/hupe1980/leadrec/distance"
	"github.com/hupe1980/leadrec/model"
)

// DocFrequency is a document-frequency cutoff, either a proportion of the
// corpus or an absolute number of documents.
type DocFrequency struct {
	Value    float64 `json:"value"`
	Absolute bool    `json:"absolute"`
}

// Proportion returns a cutoff relative to the number of documents.
func Proportion(p float64) DocFrequency {
	return DocFrequency{Value: p}
}

// Count returns a cutoff in documents.
func Count(n int) DocFrequency {
	return DocFrequency{Value: float64(n), Absolute: true}
}

// limit resolves the cutoff against a corpus of n documents.
func (d DocFrequency) limit(n int) float64 {
	if d.Absolute {
		return d.Value
	}
	return d.Value * float64(n)
}

func (d DocFrequency) validate(param string) error {
	if d.Absolute {
		if !(d.Value >= 0) || d.Value != math.Trunc(d.Value) || math.IsInf(d.Value, 0) {
			return model.NewConfigError(param, d.Value, "document count must be a non-negative integer")
		}
		return nil
	}
	if !(d.Value >= 0 && d.Value <= 1) {
		return model.NewConfigError(param, d.Value, "document proportion must be within [0, 1]")
	}
	return nil
}

func (d DocFrequency) String() string {
	if d.Absolute {
		return fmt.Sprintf("%d docs", int64(d.Value))
	}
	return fmt.Sprintf("%g", d.Value)
}

// Params configures the vectorizer.
type Params struct {
	// Lowercase folds case before tokenizing.
	Lowercase bool `json:"lowercase"`
	// NGramMin and NGramMax bound the word n-gram sizes extracted per document.
	NGramMin int `json:"ngram_min"`
	NGramMax int `json:"ngram_max"`
	// MaxDF drops terms that appear in more documents than this.
	MaxDF DocFrequency `json:"max_df"`
	// MinDF drops terms that appear in fewer documents than this.
	MinDF DocFrequency `json:"min_df"`
	// MaxFeatures keeps only the most frequent terms. Zero means no cap.
	MaxFeatures int `json:"max_features"`
	// SmoothIDF adds one to every document frequency, as if an extra
	// document contained every term once.
	SmoothIDF bool `json:"smooth_idf"`
	// SublinearTF replaces tf with 1 + ln(tf).
	SublinearTF bool `json:"sublinear_tf"`
	// Norm is the row normalization.
	Norm distance.Norm `json:"norm"`
}

// DefaultParams returns unigram, smoothed, L2-normalized settings.
func DefaultParams() Params {
	return Params{
		Lowercase: true,
		NGramMin:  1,
		NGramMax:  1,
		MaxDF:     Proportion(1.0),
		MinDF:     Count(1),
		SmoothIDF: true,
		Norm:      distance.NormL2,
	}
}

// Validate checks every parameter independently of any corpus.
func (p Params) Validate() error {
	if p.NGramMin < 1 {
		return model.NewConfigError("ngram_min", p.NGramMin, "must be at least 1")
	}
	if p.NGramMax < p.NGramMin {
		return model.NewConfigError("ngram_max", p.NGramMax, "must be at least ngram_min (%d)", p.NGramMin)
	}
	if err := p.MaxDF.validate("max_df"); err != nil {
		return err
	}
	if err := p.MinDF.validate("min_df"); err != nil {
		return err
	}
	if p.MaxFeatures < 0 {
		return model.NewConfigError("max_features", p.MaxFeatures, "must not be negative")
	}
	if _, err := distance.Normalizer(p.Norm); err != nil {
		return model.NewConfigError("norm", p.Norm, "must be one of l2, l1, none")
	}
	return nil
}
