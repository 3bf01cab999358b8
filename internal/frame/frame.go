// Package frame implements the Frame Source: it opens a track file, skips a
// leading container metadata tag if present, and yields fixed-size chunks.
package frame

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadError wraps a mid-track read failure with the file path so callers can
// log which track went bad without re-deriving it from the wrapped error.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("frame: read error on %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Source reads fixed-size chunks from an on-disk audio file, having already
// skipped any leading ID3v2-style tag.
type Source struct {
	path   string
	file   *os.File
	chunk  int
	closed bool
}

// Open opens path, detects and skips a leading container tag if present,
// and returns a Source ready to yield chunkSize chunks.
func Open(path string, chunkSize int) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	if err := skipLeadingTag(f); err != nil {
		f.Close()
		return nil, &ReadError{Path: path, Err: err}
	}

	return &Source{path: path, file: f, chunk: chunkSize}, nil
}

// skipLeadingTag detects a leading ID3v2 tag: if the first three bytes are
// "ID3", bytes 6..10 are a synchsafe integer giving the tag payload length
// L, and the reader seeks past 10+L bytes total. Otherwise it rewinds to
// offset 0.
func skipLeadingTag(f *os.File) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(f, header)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// File shorter than a header; nothing to skip.
			_, serr := f.Seek(0, io.SeekStart)
			return serr
		}
		return err
	}
	if n == 10 && header[0] == 'I' && header[1] == 'D' && header[2] == '3' {
		size := synchsafeInt(header[6], header[7], header[8], header[9])
		if _, err := f.Seek(int64(10+size), io.SeekStart); err != nil {
			return err
		}
		return nil
	}
	_, err = f.Seek(0, io.SeekStart)
	return err
}

func synchsafeInt(b6, b7, b8, b9 byte) uint32 {
	return uint32(b6&0x7F)<<21 | uint32(b7&0x7F)<<14 | uint32(b8&0x7F)<<7 | uint32(b9&0x7F)
}

// Next reads the next chunk. It returns io.EOF (with a nil chunk) once the
// file is exhausted; the final chunk before EOF may be shorter than the
// configured chunk size.
func (s *Source) Next() ([]byte, error) {
	buf := make([]byte, s.chunk)
	n, err := s.file.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &ReadError{Path: s.path, Err: err}
	}
	return nil, io.EOF
}

// Close releases the underlying file handle.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}
