package leadrec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/leadrec/blobstore"
	"github.com/hupe1980/leadrec/internal/sparse"
	"github.com/hupe1980/leadrec/model"
	"github.com/hupe1980/leadrec/persistence"
	"github.com/hupe1980/leadrec/tfidf"
)

type (
	// SchemaError indicates an expected column is missing or malformed.
	SchemaError = model.SchemaError
	// ConfigError indicates an invalid parameter.
	ConfigError = model.ConfigError
	// EmptyProfileError is returned by Predict when no portfolio id resolves.
	EmptyProfileError = model.EmptyProfileError
)

var (
	ErrSchema       = model.ErrSchema
	ErrConfig       = model.ErrConfig
	ErrEmptyProfile = model.ErrEmptyProfile

	ErrInvalidMagic     = persistence.ErrInvalidMagic
	ErrInvalidVersion   = persistence.ErrInvalidVersion
	ErrChecksumMismatch = persistence.ErrChecksumMismatch
	ErrCorruptModel     = persistence.ErrCorruptModel

	// ErrModelNotFound is returned when a requested model does not exist,
	// including when a registry has no current model.
	ErrModelNotFound = errors.New("model not found")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, persistence.ErrNoCurrentModel) || errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrModelNotFound, err)
	}

	// Invalid model parts surface as a corrupt artifact.
	if errors.Is(err, ErrCorruptModel) {
		return err
	}
	if errors.Is(err, sparse.ErrInvalidMatrix) || errors.Is(err, tfidf.ErrInvalidState) {
		return fmt.Errorf("%w: %w", ErrCorruptModel, err)
	}

	return err
}
