package certificate

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// error kinds
	ErrNotFound     = errors.New("certificate not found in local storage")
	ErrUploadFailed = errors.New("failed to upload certificate")
	ErrStorage      = errors.New("local storage failure")

	// store errors
	ErrItemNotFound  = errors.New("item not found")
	ErrQuotaExceeded = errors.New("local storage quota exceeded")

	// ErrReservedID rejects IDs whose image key is the data key of another certificate.
	ErrReservedID = errors.New(`certificate ID must not end with "` + dataKeySufx + `"`)
)

// UploadError is an ErrUploadFailed carrying the HTTP status (0 on transport errors) and cause.
type UploadError struct {
	StatusCode int
	Err        error
}

func (e *UploadError) Error() string {
	msg := ErrUploadFailed.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UploadError) Unwrap() error        { return e.Err }
func (e *UploadError) Is(target error) bool { return target == ErrUploadFailed }

// StorageError is an ErrStorage raised by the operation Op.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage.Error(), e.Op, e.Err)
}

func (e *StorageError) Unwrap() error        { return e.Err }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsUploadFailed(err error) bool { return errors.Is(err, ErrUploadFailed) }
func IsStorage(err error) bool      { return errors.Is(err, ErrStorage) }
