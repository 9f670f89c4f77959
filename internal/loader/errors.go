package loader

import (
	"fmt"

	"github.com/pkg/errors"
)

// Fatal run failures. Callers classify with errors.Is.
var (
	// ErrSourceUnavailable covers retrieval, archive and decoding failures.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrPersistence covers any failure writing to the destination store.
	ErrPersistence = errors.New("persistence failure")
)

// ErrUnknownDataset is returned when a caller names a dataset that is not
// configured.
var ErrUnknownDataset = errors.New("unknown dataset")

func sourceError(dataset string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, dataset, err)
}

func persistenceError(table string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, table, err)
}
