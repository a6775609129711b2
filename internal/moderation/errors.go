package moderation

import (
	"errors"

	"github.com/encorelive/encore-backend/internal/storage"
)

func errIsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
