package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Common errors. Use errors.Is against these to classify a resolve failure.
var (
	ErrNotFound = errors.New("file not found")
	ErrIO       = errors.New("file i/o failure")

	errIsDirectory = errors.New("is a directory")
)

// Kind classifies why a file could not be resolved
type Kind int

const (
	// KindNotFound means the file does not exist or is not accessible
	KindNotFound Kind = iota + 1
	// KindIO means the file exists but could not be opened or read
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindIO:
		return "i/o error"
	default:
		return "unknown"
	}
}

// Error is returned by Resolve, Info and CreateStream
type Error struct {
	Kind Kind
	Path string // logical path for Resolve and Info, physical path for CreateStream
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel matching the error kind
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrIO:
		return e.Kind == KindIO
	}
	return false
}

// ResolvedFile is an open file ready to be streamed.
// The receiver owns Stream and must close it.
type ResolvedFile struct {
	Stream io.ReadCloser
	// MediaType is the extension of the logical path including the dot,
	// empty when the path has none
	MediaType string
}

// FileInfo describes a verified file without opening it
type FileInfo struct {
	Name string // physical path
	Type string // extension, e.g. ".html"
}

// Resolver maps a logical path to an open file stream
type Resolver interface {
	// Resolve verifies the file behind logicalPath and opens it
	Resolve(ctx context.Context, logicalPath string) (*ResolvedFile, error)
}

// FileResolver resolves logical paths against a public directory
type FileResolver struct {
	fs     afero.Fs
	root   string
	logger zerolog.Logger
}

// NewFileResolver creates a resolver reading from root on fs
func NewFileResolver(fs afero.Fs, root string, logger zerolog.Logger) *FileResolver {
	return &FileResolver{
		fs:     fs,
		root:   root,
		logger: logger,
	}
}

// NewOSResolver creates a resolver over the real filesystem.
// The filesystem is wrapped read-only; the resolver never writes.
func NewOSResolver(root string, logger zerolog.Logger) *FileResolver {
	return NewFileResolver(afero.NewReadOnlyFs(afero.NewOsFs()), root, logger)
}

// Root returns the public directory
func (r *FileResolver) Root() string {
	return r.root
}

// PhysicalPath joins logicalPath onto the public directory.
// The logical path is cleaned as if rooted at "/" first, so ".." segments
// cannot climb above the public directory.
func (r *FileResolver) PhysicalPath(logicalPath string) string {
	cleaned := path.Clean("/" + logicalPath)
	return filepath.Join(r.root, filepath.FromSlash(cleaned))
}

// Info verifies that logicalPath names an existing regular file and
// classifies its media type
func (r *FileResolver) Info(logicalPath string) (FileInfo, error) {
	name := r.PhysicalPath(logicalPath)

	stat, err := r.fs.Stat(name)
	if err != nil {
		return FileInfo{}, &Error{Kind: KindNotFound, Path: logicalPath, Err: err}
	}
	if stat.IsDir() {
		return FileInfo{}, &Error{Kind: KindNotFound, Path: logicalPath, Err: errIsDirectory}
	}

	return FileInfo{
		Name: name,
		Type: path.Ext(logicalPath),
	}, nil
}

// CreateStream opens a read stream over an already resolved physical path.
// There is a single open attempt.
func (r *FileResolver) CreateStream(physicalPath string) (io.ReadCloser, error) {
	f, err := r.fs.Open(physicalPath)
	if err != nil {
		return nil, &Error{Kind: KindIO, Path: physicalPath, Err: err}
	}
	return f, nil
}

// Resolve implements Resolver
func (r *FileResolver) Resolve(ctx context.Context, logicalPath string) (*ResolvedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindIO, Path: logicalPath, Err: err}
	}

	info, err := r.Info(logicalPath)
	if err != nil {
		r.logger.Debug().Err(err).Str("path", logicalPath).Msg("File not accessible")
		return nil, err
	}

	stream, err := r.CreateStream(info.Name)
	if err != nil {
		r.logger.Warn().Err(err).Str("path", logicalPath).Msg("Failed to open file")
		return nil, err
	}

	r.logger.Debug().
		Str("path", logicalPath).
		Str("file", info.Name).
		Str("type", info.Type).
		Msg("Resolved file")

	return &ResolvedFile{
		Stream:    stream,
		MediaType: info.Type,
	}, nil
}
