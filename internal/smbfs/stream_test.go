package smbfs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javi11/smbvfs/internal/smb"
)

type stubStream struct {
	io.Reader
	closeErr error
	closed   int
	order    *[]string
}

func (s *stubStream) Close() error {
	s.closed++
	*s.order = append(*s.order, "stream")
	return s.closeErr
}

type stubFile struct {
	stream   *stubStream
	closeErr error
	closed   int
	order    *[]string
}

func (f *stubFile) Path() string                              { return "stub" }
func (f *stubFile) Rename(context.Context, string) error      { return nil }
func (f *stubFile) InputStream() io.ReadCloser                { return f.stream }
func (f *stubFile) OutputStream(bool) (io.WriteCloser, error) { return nil, errors.New("read only") }
func (f *stubFile) RemoteCopyTo(context.Context, smb.File) error {
	return errors.New("not supported")
}

func (f *stubFile) Close() error {
	f.closed++
	*f.order = append(*f.order, "file")
	return f.closeErr
}

func newStubFile(content string, streamErr, fileErr error) *stubFile {
	var order []string
	return &stubFile{
		stream:   &stubStream{Reader: strings.NewReader(content), closeErr: streamErr, order: &order},
		closeErr: fileErr,
		order:    &order,
	}
}

func TestInputStream_Read(t *testing.T) {
	s := newInputStream(newStubFile("abcdef", nil, nil))

	b, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), b)

	buf := make([]byte, 8)
	n, err := s.Read(buf[2:5])
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "bcd", string(buf[2:5]))

	rest, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "ef", string(rest))

	_, err = s.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestInputStream_Close(t *testing.T) {
	errStream := errors.New("stream close failed")
	errFile := errors.New("file close failed")

	tests := []struct {
		name      string
		streamErr error
		fileErr   error
	}{
		{name: "both succeed"},
		{name: "stream fails", streamErr: errStream},
		{name: "file fails", fileErr: errFile},
		{name: "both fail", streamErr: errStream, fileErr: errFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStubFile("x", tt.streamErr, tt.fileErr)
			s := newInputStream(f)

			err := s.Close()
			for _, want := range []error{tt.streamErr, tt.fileErr} {
				if want != nil {
					assert.ErrorIs(t, err, want)
				}
			}
			if tt.streamErr == nil && tt.fileErr == nil {
				assert.NoError(t, err)
			}

			assert.Equal(t, []string{"stream", "file"}, *f.order, "stream first, then the handle")

			_ = s.Close()
			assert.Equal(t, 1, f.stream.closed)
			assert.Equal(t, 1, f.closed)
		})
	}
}
