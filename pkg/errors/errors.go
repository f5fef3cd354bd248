package errors

import "errors"

var (
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrNilTransaction           = errors.New("transaction is nil")
	ErrInvalidTransactionStatus = errors.New("invalid transaction status")
	ErrInvalidInput             = errors.New("invalid input")
	ErrInternal                 = errors.New("internal error")
)
