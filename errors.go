package nrfgoprog

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrCode discriminates driver-level failure conditions.
type ErrCode int

const (
	// ErrCodeGeneric is a driver failure with no more specific condition.
	ErrCodeGeneric ErrCode = iota
	// ErrCodeWrongFamily means the handle was opened for the wrong device
	// family. Consumed internally by Open to trigger the family retry;
	// never returned from Open itself.
	ErrCodeWrongFamily
)

// DriverError is a failure reported by the debug probe driver.
type DriverError struct {
	Op   string
	Code ErrCode
	Err  error
}

func (e *DriverError) Error() string {
	if e.Code == ErrCodeWrongFamily {
		return fmt.Sprintf("%s: wrong family for device", e.Op)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: driver error", e.Op)
}

func (e *DriverError) Unwrap() error { return e.Err }

// IsWrongFamily reports whether err is a driver error carrying the
// wrong-family condition.
func IsWrongFamily(err error) bool {
	var derr *DriverError
	if errors.As(err, &derr) {
		return derr.Code == ErrCodeWrongFamily
	}
	return false
}

// NotErasedError indicates that flash being written to was not erased.
// Writing over programmed flash can only clear bits, so the write is refused
// before any byte is transferred.
type NotErasedError struct {
	// Address is the start of the segment that failed the check.
	Address uint32
	// Offset is the byte offset within the segment of the first
	// non-erased byte, and Value is what it read as.
	Offset int
	Value  byte
}

func (e *NotErasedError) Error() string {
	return fmt.Sprintf("flash at 0x%08X not erased: read 0x%02X at offset %d",
		e.Address, e.Value, e.Offset)
}

// VerificationError indicates that data read back from the target does not
// match the data written.
type VerificationError struct {
	// Address is the absolute address of the first mismatching byte.
	Address  uint32
	Expected byte
	Actual   byte
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verify failed at 0x%08X: expected 0x%02X, read 0x%02X",
		e.Address, e.Expected, e.Actual)
}

// MalformedImageError indicates that a firmware image file could not be
// parsed into segments.
type MalformedImageError struct {
	Path string
	Err  error
}

func (e *MalformedImageError) Error() string {
	return fmt.Sprintf("malformed image %s: %v", e.Path, e.Err)
}

func (e *MalformedImageError) Unwrap() error { return e.Err }

// UnimplementedError marks an operation that is part of the command surface
// but not implemented. It fails loudly rather than silently doing nothing.
type UnimplementedError struct {
	Op string
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("%s: not implemented", e.Op)
}
