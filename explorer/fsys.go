package explorer

import (
	"context"
	"errors"

	"github.com/Triumph-Tech/magnus"
	"github.com/Triumph-Tech/magnus/vuri"
)

// ErrNotImplemented signals a filesystem operation this system does not
// support (directory listing/creation, delete, rename at the filesystem
// boundary). It is distinct from every remote error so hosts can map it
// to their own not-supported condition.
var ErrNotImplemented = errors.New("filesystem operation not implemented")

// Stat resolves a virtual identifier and fetches size, dates, and the
// read-only flag for the remote file behind it.
func (e *Explorer) Stat(ctx context.Context, virtualURI string) (*magnus.FileStat, error) {
	webURL, err := vuri.ToWebURL(virtualURI)
	if err != nil {
		return nil, err
	}
	return e.client.GetFileStat(ctx, webURL)
}

// ReadFile fetches the full content of the remote file behind a virtual
// identifier.
func (e *Explorer) ReadFile(ctx context.Context, virtualURI string) ([]byte, error) {
	webURL, err := vuri.ToWebURL(virtualURI)
	if err != nil {
		return nil, err
	}
	return e.client.GetFileContent(ctx, webURL)
}

// WriteFile replaces the content of the remote file behind a virtual
// identifier. The write is all-or-nothing per call.
func (e *Explorer) WriteFile(ctx context.Context, virtualURI string, content []byte) error {
	webURL, err := vuri.ToWebURL(virtualURI)
	if err != nil {
		return err
	}
	return e.client.UpdateFileContent(ctx, webURL, content)
}

// ReadDirectory is not supported on the filesystem surface; directory
// structure is served through the tree listing instead.
func (e *Explorer) ReadDirectory(ctx context.Context, virtualURI string) error {
	return ErrNotImplemented
}

// CreateDirectory is not supported on the filesystem surface; folders are
// created through the tree's create-folder action.
func (e *Explorer) CreateDirectory(ctx context.Context, virtualURI string) error {
	return ErrNotImplemented
}

// DeleteFile is not supported on the filesystem surface; deletion goes
// through the tree's delete action with its confirmation flow.
func (e *Explorer) DeleteFile(ctx context.Context, virtualURI string) error {
	return ErrNotImplemented
}

// Rename is not supported on the filesystem surface.
func (e *Explorer) Rename(ctx context.Context, oldVirtualURI, newVirtualURI string) error {
	return ErrNotImplemented
}

// Watch subscribes to changes of a virtual file. Remote content is not
// watched, so the subscription does nothing, but the returned handle is
// always valid to dispose.
func (e *Explorer) Watch(virtualURI string) magnus.Disposable {
	return magnus.DisposableFunc(func() {})
}
