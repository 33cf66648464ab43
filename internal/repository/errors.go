// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to tell
// storage-level outcomes apart without inspecting driver errors itself.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update trips a unique key,
// e.g. a second genre called "action" or a second review of one movie by
// the same user. It is the authoritative duplicate signal; application
// pre-checks only exist to fail fast.
var ErrDuplicate = errors.New("duplicate")

// ErrInUse is returned when a delete is refused because other rows still
// reference the target (a genre attached to a movie).
var ErrInUse = errors.New("in use")

// MySQL server error numbers mapped by this package.
const (
	mysqlDupEntry        = 1062
	mysqlRowIsReferenced = 1451
)

func mysqlErrNo(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrNo(err) == mysqlDupEntry }

func isReferenced(err error) bool { return mysqlErrNo(err) == mysqlRowIsReferenced }
