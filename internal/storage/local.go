package storage

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Local writes documents under dir on fs and serves them from baseURL.
type Local struct {
	fs      afero.Fs
	dir     string
	baseURL string
}

func NewLocal(fs afero.Fs, dir, baseURL string) *Local {
	return &Local{fs: fs, dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Local) Upload(_ context.Context, name string, content []byte) (UploadResult, error) {
	name = path.Clean("/" + name)[1:]
	if name == "" {
		return UploadResult{Message: "empty file name"}, nil
	}
	full := path.Join(l.dir, name)
	if err := l.fs.MkdirAll(path.Dir(full), 0o755); err != nil {
		return UploadResult{Message: err.Error()}, fmt.Errorf("create storage dir: %w", err)
	}
	if err := afero.WriteFile(l.fs, full, content, 0o644); err != nil {
		return UploadResult{Message: err.Error()}, fmt.Errorf("write %s: %w", full, err)
	}
	return UploadResult{
		Success:  true,
		URL:      l.baseURL + "/" + name,
		PublicID: name,
		Message:  "stored",
	}, nil
}

// FileSystem exposes the stored documents for static serving.
func (l *Local) FileSystem() http.FileSystem {
	return afero.NewHttpFs(l.fs).Dir(l.dir)
}
