package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomy_UnwrapAndClassify(t *testing.T) {
	cause := io.ErrUnexpectedEOF

	tests := []struct {
		name      string
		err       error
		contains  string
		retryable bool
	}{
		{"connection", NewConnectionError("fileserver", cause), "fileserver", true},
		{"file information", NewFileInformationError(`a\b`, cause), `a\\b`, false},
		{"delete", NewDeleteError(`docs`, cause), "docs", false},
		{"remote copy", NewRemoteCopyError(`a.txt`, `b.txt`, cause), "b.txt", false},
		{"copy file", NewCopyFileError("smb://h/s/a", "smb://h/s/b", cause), "smb://h/s/b", false},
		{"missing share", NewMissingShareNameError("smb://host/"), "smb://host/", false},
		{"missing source", NewMissingSourceFileError("smb://host/s/x"), "smb://host/s/x", false},
		{"read not file", ErrReadNotFile, "not a file", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, IsProviderError(tt.err))
			assert.Contains(t, tt.err.Error(), tt.contains)
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestTaxonomy_WrappedCauseIsReachable(t *testing.T) {
	err := NewDeleteError("docs", io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	wrapped := fmt.Errorf("cli: %w", NewConnectionError("host", io.EOF))
	assert.True(t, IsConnectionError(wrapped))
	assert.True(t, IsProviderError(wrapped))
}

func TestIsProviderError_ForeignErrors(t *testing.T) {
	assert.False(t, IsProviderError(nil))
	assert.False(t, IsProviderError(io.EOF))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(io.EOF))
	assert.True(t, IsRetryable(fmt.Errorf("ls: %w", NewConnectionError("host", io.EOF))))
	assert.True(t, IsRetryable(NewDeleteError("docs", NewConnectionError("host", io.EOF))), "a connect failing mid-operation is retried")
}
