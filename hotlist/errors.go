package hotlist

import (
	"errors"

	"github.com/hazyhaar/hotwatch/hotlist/internal/store"
)

// ErrInvalidInput is returned when crawl input fails validation. Nothing
// is written when it is returned.
var ErrInvalidInput = errors.New("hotlist: invalid input")

// ErrNotFound is returned when an operation targets a row that does not
// exist.
var ErrNotFound = store.ErrNotFound
