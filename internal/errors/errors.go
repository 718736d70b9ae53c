// Package errors provides the error taxonomy of the SMB filesystem provider.
// It lives in its own package so that the vfs framework, the provider and the CLI
// can all classify failures without importing each other.
package errors

import (
	"errors"
	"fmt"
)

// ProviderError is implemented by every error of this taxonomy.
type ProviderError interface {
	error
	providerError()
}

// ConnectionError reports a failed transport connect or session setup.
type ConnectionError struct {
	Host  string
	cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to SMB server %q: %v", e.Host, e.cause)
}

func (e *ConnectionError) Unwrap() error { return e.cause }
func (*ConnectionError) providerError()  {}

// NewConnectionError creates a ConnectionError for host.
func NewConnectionError(host string, cause error) error {
	return &ConnectionError{Host: host, cause: cause}
}

// MissingShareNameError reports an address without a share segment.
type MissingShareNameError struct {
	URI string
}

func (e *MissingShareNameError) Error() string {
	return fmt.Sprintf("missing share name in %q", e.URI)
}

func (*MissingShareNameError) providerError() {}

// NewMissingShareNameError creates a MissingShareNameError for uri.
func NewMissingShareNameError(uri string) error {
	return &MissingShareNameError{URI: uri}
}

// FileInformationError reports a stat failure other than "not found".
type FileInformationError struct {
	Path  string
	cause error
}

func (e *FileInformationError) Error() string {
	return fmt.Sprintf("could not get file information of %q: %v", e.Path, e.cause)
}

func (e *FileInformationError) Unwrap() error { return e.cause }
func (*FileInformationError) providerError()  {}

// NewFileInformationError creates a FileInformationError for path.
func NewFileInformationError(path string, cause error) error {
	return &FileInformationError{Path: path, cause: cause}
}

// DeleteError reports a failed removal.
type DeleteError struct {
	Path  string
	cause error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("could not delete %q: %v", e.Path, e.cause)
}

func (e *DeleteError) Unwrap() error { return e.cause }
func (*DeleteError) providerError()  {}

// NewDeleteError creates a DeleteError for path.
func NewDeleteError(path string, cause error) error {
	return &DeleteError{Path: path, cause: cause}
}

// RemoteCopyError reports a failed server-side copy.
type RemoteCopyError struct {
	Source      string
	Destination string
	cause       error
}

func (e *RemoteCopyError) Error() string {
	return fmt.Sprintf("could not copy %q to %q on the server: %v", e.Source, e.Destination, e.cause)
}

func (e *RemoteCopyError) Unwrap() error { return e.cause }
func (*RemoteCopyError) providerError()  {}

// NewRemoteCopyError creates a RemoteCopyError for the source/destination pair.
func NewRemoteCopyError(source, destination string, cause error) error {
	return &RemoteCopyError{Source: source, Destination: destination, cause: cause}
}

// MissingSourceFileError reports a copy whose source does not exist.
type MissingSourceFileError struct {
	URI string
}

func (e *MissingSourceFileError) Error() string {
	return fmt.Sprintf("copy source %q does not exist", e.URI)
}

func (*MissingSourceFileError) providerError() {}

// NewMissingSourceFileError creates a MissingSourceFileError for uri.
func NewMissingSourceFileError(uri string) error {
	return &MissingSourceFileError{URI: uri}
}

// CopyFileError reports the failure of one entry of a tree copy.
type CopyFileError struct {
	Source      string
	Destination string
	cause       error
}

func (e *CopyFileError) Error() string {
	return fmt.Sprintf("could not copy %q to %q: %v", e.Source, e.Destination, e.cause)
}

func (e *CopyFileError) Unwrap() error { return e.cause }
func (*CopyFileError) providerError()  {}

// NewCopyFileError creates a CopyFileError for the source/destination pair.
func NewCopyFileError(source, destination string, cause error) error {
	return &CopyFileError{Source: source, Destination: destination, cause: cause}
}

// usageError is a caller mistake rather than a remote failure.
type usageError struct {
	message string
}

func (e *usageError) Error() string { return e.message }
func (*usageError) providerError()  {}

// Sentinel errors for caller mistakes.
var (
	// ErrReadNotFile is returned when content is requested from a node without content.
	ErrReadNotFile error = &usageError{message: "cannot read content of a node that is not a file"}

	// ErrNotSMBFile is returned when an SMB-only operation receives a foreign node.
	ErrNotSMBFile error = &usageError{message: "target is not a file on an SMB filesystem"}

	// ErrWriteNotSupported is returned when a node cannot be written to.
	ErrWriteNotSupported error = &usageError{message: "write not supported on this node"}
)

// IsProviderError reports whether err, or any error it wraps, belongs to the taxonomy.
func IsProviderError(err error) bool {
	if err == nil {
		return false
	}
	var pe ProviderError
	return errors.As(err, &pe)
}

// IsConnectionError reports whether err was caused by a failed connect.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsRetryable reports whether re-invoking the failed operation may succeed.
// Only failed connects qualify; the server's answer to a request is final.
func IsRetryable(err error) bool {
	return IsConnectionError(err)
}
