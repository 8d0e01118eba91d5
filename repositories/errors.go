package repositories

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"kd-resto/apperrors"
)

// MySQL server/client error numbers that mean the connection, not the statement, failed.
var transientMySQLErrors = map[uint16]bool{
	1040: true, // too many connections
	1053: true, // server shutdown in progress
	1205: true, // lock wait timeout
	2002: true,
	2003: true,
	2006: true, // server has gone away
	2013: true, // lost connection during query
}

// classify turns driver and gorm errors into apperrors kinds. Errors that are
// already *apperrors.Error pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &apperrors.Error{Kind: apperrors.KindNotFound, Message: "record not found", Err: err}
	case IsDuplicate(err):
		return &apperrors.Error{Kind: apperrors.KindConflict, Message: "duplicate record", Err: err}
	case IsTransient(err):
		return apperrors.Transient("database unavailable", err)
	default:
		return apperrors.Internal("database error", err)
	}
}

// IsTransient reports whether err is a connectivity fault worth one retry on a new connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if apperrors.IsTransient(err) {
		return true
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysqldriver.ErrInvalidConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return transientMySQLErrors[myErr.Number]
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exception; 57P01: admin shutdown
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01"
	}
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}

func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// sqlite has no typed error through gorm without TranslateError
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
