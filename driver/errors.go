package driver

import "errors"

// Predefined errors
var (
	// ErrNoPathProvided is returned when the DSN is empty
	ErrNoPathProvided = errors.New("salesdash driver: no path provided")

	// ErrNoLoader is returned when a DSN connector has no load function
	ErrNoLoader = errors.New("salesdash driver: no loader configured")

	// ErrNilTable is returned when the load function returns no table
	ErrNilTable = errors.New("salesdash driver: loader returned no table")

	// ErrNoColumns is returned when the table carries no known field
	ErrNoColumns = errors.New("salesdash driver: table has no columns")

	// ErrStmtExecContextNotSupported is returned when statement does not support ExecContext
	ErrStmtExecContextNotSupported = errors.New("salesdash driver: statement does not support ExecContext")

	// ErrBeginTxNotSupported is returned when underlying connection does not support BeginTx
	ErrBeginTxNotSupported = errors.New("salesdash driver: underlying connection does not support BeginTx")

	// ErrPrepareContextNotSupported is returned when underlying connection does not support PrepareContext
	ErrPrepareContextNotSupported = errors.New("salesdash driver: underlying connection does not support PrepareContext")
)
