package memory

import "github.com/encorelive/encore-backend/internal/storage"

// ErrNotFound aliases the shared sentinel so callers inside this package can
// return it without the extra import.
var ErrNotFound = storage.ErrNotFound
