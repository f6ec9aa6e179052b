package zarc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/opencontainers/go-digest"
)

// ByteSource provides random access to archive bytes.
//
// Implementations exist for local files, in-memory data, seekable streams,
// and HTTP range requests. SourceID must return a stable identifier that
// changes whenever the content changes; it keys the entry cache.
type ByteSource interface {
	io.ReaderAt
	Size() int64
	SourceID() string
}

// FileSource is a ByteSource backed by an *os.File.
type FileSource struct {
	f        *os.File
	size     int64
	sourceID string
}

// NewFileSource wraps an open file. The caller keeps ownership of f.
func NewFileSource(f *os.File) (*FileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file", f.Name())
	}
	name := f.Name()
	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}
	return &FileSource{
		f:        f,
		size:     info.Size(),
		sourceID: fmt.Sprintf("file:%s|size:%d|mod:%d", name, info.Size(), info.ModTime().UnixNano()),
	}, nil
}

// ReadAt implements io.ReaderAt.
func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

// Size returns the file size at the time the source was created.
func (s *FileSource) Size() int64 {
	return s.size
}

// SourceID identifies the file by path, size, and modification time.
func (s *FileSource) SourceID() string {
	return s.sourceID
}

// BytesSource is a ByteSource over an in-memory archive.
type BytesSource struct {
	r        *bytes.Reader
	sourceID string
}

// NewBytesSource returns a source reading from data.
// data must not be modified while the source is in use.
func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{
		r:        bytes.NewReader(data),
		sourceID: "bytes:" + digest.FromBytes(data).String(),
	}
}

// ReadAt implements io.ReaderAt.
func (s *BytesSource) ReadAt(p []byte, off int64) (int, error) {
	return s.r.ReadAt(p, off)
}

// Size returns the length of the data.
func (s *BytesSource) Size() int64 {
	return s.r.Size()
}

// SourceID returns the content digest of the data.
func (s *BytesSource) SourceID() string {
	return s.sourceID
}

// ReadSeekerSource adapts an io.ReadSeeker into a ByteSource.
// Each read seeks then reads under a mutex, so reads are serialized.
type ReadSeekerSource struct {
	mu       sync.Mutex
	rs       io.ReadSeeker
	size     int64
	sourceID string
}

// NewReadSeekerSource determines the stream size by seeking to its end.
//
// The stream's identity is unknown, so the SourceID is unique to this
// source value and cached entries are only shared within its lifetime.
func NewReadSeekerSource(rs io.ReadSeeker) (*ReadSeekerSource, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("determine stream size: %w", err)
	}
	s := &ReadSeekerSource{rs: rs, size: size}
	s.sourceID = fmt.Sprintf("stream:%p|size:%d", s, size)
	return s, nil
}

// ReadAt implements io.ReaderAt.
func (s *ReadSeekerSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.rs.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(s.rs, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n, err
}

// Size returns the stream size.
func (s *ReadSeekerSource) Size() int64 {
	return s.size
}

// SourceID returns an identifier unique to this source value.
func (s *ReadSeekerSource) SourceID() string {
	return s.sourceID
}
