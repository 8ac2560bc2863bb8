package db

import "errors"

// ErrKeyNotFound is returned by Get for a missing or expired key.
var ErrKeyNotFound = errors.New("db: key not found")

// Command names recorded on Error.
const (
	OpGet    = "GET"
	OpSet    = "SET"
	OpDel    = "DEL"
	OpIncr   = "INCR"
	OpExpire = "EXPIRE"

	OpInsert      = "INSERT"
	OpFind        = "FIND"
	OpCreateIndex = "CREATE_INDEX"
)

// Error wraps a store failure with the command that caused it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
