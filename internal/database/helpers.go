package database

import (
	"database/sql"
	"fmt"
)

// requireAffected returns missing when result reports zero affected rows.
func requireAffected(result sql.Result, missing error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}
