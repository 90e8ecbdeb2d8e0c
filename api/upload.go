package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Triumph-Tech/magnus"
)

// Folder upload guard sentinels. The configured limits are checked locally
// before any network call; wrap messages state which limit was exceeded.
var (
	ErrTooManyFiles   = fmt.Errorf("folder exceeds the upload file count limit")
	ErrUploadTooLarge = fmt.Errorf("folder exceeds the upload size limit")
)

// UploadFiles packages the given local files as a multipart payload and
// posts it to the server-supplied upload URL.
func (c *Client) UploadFiles(ctx context.Context, url string, localPaths []string) (*magnus.ActionResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range localPaths {
		if err := addFilePart(mw, p, filepath.Base(p)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return c.RunAction(ctx, http.MethodPost, url, body.Bytes(), mw.FormDataContentType())
}

// UploadFolder recursively enumerates localDir depth-first and posts every
// file under it as one multipart payload, preserving relative paths.
// Enumeration aborts at the first guard violation (file count or
// cumulative byte size) before anything is sent.
func (c *Client) UploadFolder(ctx context.Context, url string, localDir string) (*magnus.ActionResponse, error) {
	paths, err := c.enumerateFolder(localDir)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range paths {
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return nil, err
		}
		if err := addFilePart(mw, p, filepath.ToSlash(rel)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return c.RunAction(ctx, http.MethodPost, url, body.Bytes(), mw.FormDataContentType())
}

// enumerateFolder walks dir depth-first collecting regular files, failing
// fast as soon as a configured limit is exceeded.
func (c *Client) enumerateFolder(dir string) ([]string, error) {
	var (
		paths []string
		total int64
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		paths = append(paths, path)
		total += info.Size()
		if len(paths) > c.cfg.MaxUploadFiles {
			return fmt.Errorf("%w of %d files", ErrTooManyFiles, c.cfg.MaxUploadFiles)
		}
		if total > c.cfg.MaxUploadBytes {
			return fmt.Errorf("%w of %d bytes", ErrUploadTooLarge, c.cfg.MaxUploadBytes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func addFilePart(mw *multipart.Writer, localPath, name string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := mw.CreateFormFile("files", name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
