package smb

import (
	"errors"
	"fmt"
)

// NtStatus is an NTSTATUS code returned by the server (MS-ERREF 2.3).
type NtStatus uint32

const (
	StatusSuccess             NtStatus = 0x00000000
	StatusNoMoreFiles         NtStatus = 0x80000006
	StatusInvalidParameter    NtStatus = 0xC000000D
	StatusAccessDenied        NtStatus = 0xC0000022
	StatusObjectNameInvalid   NtStatus = 0xC0000033
	StatusObjectNameNotFound  NtStatus = 0xC0000034
	StatusObjectNameCollision NtStatus = 0xC0000035
	StatusObjectPathNotFound  NtStatus = 0xC000003A
	StatusSharingViolation    NtStatus = 0xC0000043
	StatusNotSupported        NtStatus = 0xC00000BB
	StatusFileIsADirectory    NtStatus = 0xC00000BA
	StatusDirectoryNotEmpty   NtStatus = 0xC0000101
	StatusNotADirectory       NtStatus = 0xC0000103
	StatusBadNetworkName      NtStatus = 0xC00000CC
	StatusLogonFailure        NtStatus = 0xC000006D
)

var statusNames = map[NtStatus]string{
	StatusSuccess:             "STATUS_SUCCESS",
	StatusNoMoreFiles:         "STATUS_NO_MORE_FILES",
	StatusInvalidParameter:    "STATUS_INVALID_PARAMETER",
	StatusAccessDenied:        "STATUS_ACCESS_DENIED",
	StatusObjectNameInvalid:   "STATUS_OBJECT_NAME_INVALID",
	StatusObjectNameNotFound:  "STATUS_OBJECT_NAME_NOT_FOUND",
	StatusObjectNameCollision: "STATUS_OBJECT_NAME_COLLISION",
	StatusObjectPathNotFound:  "STATUS_OBJECT_PATH_NOT_FOUND",
	StatusSharingViolation:    "STATUS_SHARING_VIOLATION",
	StatusNotSupported:        "STATUS_NOT_SUPPORTED",
	StatusFileIsADirectory:    "STATUS_FILE_IS_A_DIRECTORY",
	StatusDirectoryNotEmpty:   "STATUS_DIRECTORY_NOT_EMPTY",
	StatusNotADirectory:       "STATUS_NOT_A_DIRECTORY",
	StatusBadNetworkName:      "STATUS_BAD_NETWORK_NAME",
	StatusLogonFailure:        "STATUS_LOGON_FAILURE",
}

func (s NtStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("NTSTATUS(0x%08X)", uint32(s))
}

// StatusError is a request the server answered with a failure status.
type StatusError struct {
	Op     string
	Path   string
	Status NtStatus
	cause  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("smb %s %q: %s", e.Op, e.Path, e.Status)
}

// Unwrap returns the client library error the status was read from, if any.
func (e *StatusError) Unwrap() error { return e.cause }

// NewStatusError builds a StatusError for op on path.
func NewStatusError(op, path string, status NtStatus) error {
	return &StatusError{Op: op, Path: path, Status: status}
}

// StatusOf extracts the NTSTATUS carried by err, if any.
func StatusOf(err error) (NtStatus, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}

// IsNotFound reports whether err means the object or one of its parents does not exist.
func IsNotFound(err error) bool {
	status, ok := StatusOf(err)
	if !ok {
		return false
	}
	return status == StatusObjectNameNotFound || status == StatusObjectPathNotFound
}
