package smbfs

import (
	"errors"
	"io"
	"sync"

	"github.com/javi11/smbvfs/internal/smb"
)

// inputStream reads a remote file and owns its handle.
type inputStream struct {
	stream io.ReadCloser
	file   smb.File

	once sync.Once
	err  error
}

func newInputStream(file smb.File) *inputStream {
	return &inputStream{stream: file.InputStream(), file: file}
}

func (s *inputStream) Read(p []byte) (int, error) {
	return s.stream.Read(p)
}

func (s *inputStream) ReadByte() (byte, error) {
	var b [1]byte
	for {
		n, err := s.stream.Read(b[:])
		if n == 1 {
			return b[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// Close closes the stream, then the handle. Both are always attempted.
func (s *inputStream) Close() error {
	s.once.Do(func() {
		s.err = errors.Join(s.stream.Close(), s.file.Close())
	})
	return s.err
}

// outputStream writes a remote file and owns its handle. done runs after the handle
// is closed, whatever the outcome.
type outputStream struct {
	stream io.WriteCloser
	file   smb.File
	done   func()

	once sync.Once
	err  error
}

func (s *outputStream) Write(p []byte) (int, error) {
	return s.stream.Write(p)
}

func (s *outputStream) Close() error {
	s.once.Do(func() {
		s.err = errors.Join(s.stream.Close(), s.file.Close())
		if s.done != nil {
			s.done()
		}
	})
	return s.err
}
