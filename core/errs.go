package core

import "errors"

var (
	ErrInvalidTargetPrice = errors.New("target price must be a positive number")
	ErrUnknownSymbol      = errors.New("unknown symbol")
	ErrUnknownCurrency    = errors.New("unknown currency")
)
