package accounts

import "errors"

var (
	// ErrNotFound indicates a missing account.
	ErrNotFound = errors.New("accounts: account not found")
	// ErrDuplicateCode indicates the code already exists for the tenant.
	ErrDuplicateCode = errors.New("accounts: code already exists")
	// ErrAccountInUse indicates posting lines reference the account.
	ErrAccountInUse = errors.New("accounts: account has posting lines and cannot be deleted")
	// ErrInvalidType indicates an unknown account type.
	ErrInvalidType = errors.New("accounts: invalid account type")
	// ErrSystemAccountNotConfigured indicates a missing control account setting.
	ErrSystemAccountNotConfigured = errors.New("accounts: system account not configured")
)
