package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBundleTooLarge         = errors.New("image bundle exceeds the configured size limit")
	ErrImageNotFound          = errors.New("image not found")
	ErrInvalidImageID         = errors.New("invalid image ID")
	ErrInvalidSoftwareVersion = errors.New("invalid software version")
	ErrInvalidVariant         = errors.New("invalid analyzer output variant")
	ErrMockError              = errors.New("mock error")
	ErrServiceStopped         = errors.New("image service is shut down")
)

// StoreNotFoundError is returned when the store root directory does not exist.
type StoreNotFoundError struct {
	Path string
}

func (e *StoreNotFoundError) Error() string {
	return fmt.Sprintf("image store root directory does not exist: %s", e.Path)
}

// IncompatibleSchemaError is returned when the data on disk was written with a
// schema major version older than the running software supports.
type IncompatibleSchemaError struct {
	Stored          string
	Current         string
	SoftwareVersion string
}

func (e *IncompatibleSchemaError) Error() string {
	return fmt.Sprintf("image store schema version (%s) cannot be automatically upgraded to schema version %s used by software version %s: "+
		"downgrade the software to a compatible version or remove the store and reinitialize it",
		e.Stored, e.Current, e.SoftwareVersion)
}
