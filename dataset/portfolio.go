package dataset

import (
	"fmt"
	"io"
)

// ReadPortfolio reads the ids of a portfolio CSV. Only the id column is
// used; other columns are ignored. Empty ids are skipped.
func ReadPortfolio(r io.Reader, idColumn string, opts ...CSVOption) ([]string, error) {
	opts = append(opts, WithColumns())
	t, err := ReadCSV(r, idColumn, opts...)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, t.Len())
	for _, rec := range t.Records {
		if rec.ID == "" {
			continue
		}
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

// ReadPortfolioFile opens path (see Open) and reads it with ReadPortfolio.
func ReadPortfolioFile(path, idColumn string, opts ...CSVOption) ([]string, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ids, err := ReadPortfolio(rc, idColumn, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ids, nil
}
