package storage

import (
	"database/sql"
	"errors"
)

// handleNotFound converts sql.ErrNoRows into a nil result so callers can
// distinguish "absent" from an actual query failure.
func handleNotFound[T any](result *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}
