package services

import (
	"errors"

	"billweave-backend/policy"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = policy.ErrUnauthorized
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)
