package database

import (
	"database/sql"

	"github.com/apex/log"
)

// logResult warns when a statement that should touch exactly one row did not.
func logResult(msgPrefix string, r sql.Result, expectOne bool) {
	rows, err := r.RowsAffected()
	if err != nil {
		log.WithError(err).Errorf("%s: failed to get status of db op", msgPrefix)
		return
	}
	if expectOne && rows != 1 {
		log.Warnf("%s: expected to affect 1 row, affected %d", msgPrefix, rows)
	}
}
