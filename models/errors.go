package models

import (
	"errors"
	"fmt"
)

// Error kinds shared by the client and the scoring service. Callers match
// them with errors.Is; the typed errors below wrap one of these.
var (
	ErrDomain      = errors.New("value outside allowed domain")
	ErrShape       = errors.New("ciphertext shape does not match model")
	ErrKeyMismatch = errors.New("ciphertexts encrypted under different keys")
	ErrCryptoInit  = errors.New("crypto initialization failed")
	ErrTransport   = errors.New("transport failure")
)

// DomainError reports an input value that is out of range or not integral.
type DomainError struct {
	Domain string
	Value  string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s value %s: %s", e.Domain, e.Value, e.Reason)
}

func (e *DomainError) Unwrap() error { return ErrDomain }

// ShapeError reports a wrong number or shape of ciphertexts.
type ShapeError struct {
	Expected int
	Got      int
	Detail   string
}

func (e *ShapeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("invalid ciphertext shape: %s", e.Detail)
	}
	return fmt.Sprintf("expected %d encrypted responses, got %d", e.Expected, e.Got)
}

func (e *ShapeError) Unwrap() error { return ErrShape }

// KeyMismatchError reports an operation across incompatible keys.
type KeyMismatchError struct {
	Detail string
}

func (e *KeyMismatchError) Error() string {
	return fmt.Sprintf("key mismatch: %s", e.Detail)
}

func (e *KeyMismatchError) Unwrap() error { return ErrKeyMismatch }

// CryptoInitError wraps a key or engine setup failure.
type CryptoInitError struct {
	Op  string
	Err error
}

func (e *CryptoInitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrCryptoInit)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CryptoInitError) Unwrap() []error { return []error{ErrCryptoInit, e.Err} }

// TransportError wraps a network or encoding failure. Status is the HTTP
// status returned by the peer, or 0 when no response was received.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// IsClientError reports whether err is correctable by the caller
// (bad values, shapes, keys or encodings) rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDomain) ||
		errors.Is(err, ErrShape) ||
		errors.Is(err, ErrKeyMismatch) ||
		errors.Is(err, ErrTransport)
}
