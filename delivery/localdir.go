package delivery

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/okatsune/desudl/bundle"
	"github.com/okatsune/desudl/common"
	"github.com/okatsune/desudl/progress"
)

// LocalDir is a Channel that copies artifacts into a destination
// directory on the local machine. The returned handle is the absolute
// path of the copy.
type LocalDir struct {
	dir     string
	maxSize int64
}

func NewLocalDir(dir string, maxSize int64) *LocalDir {
	if maxSize <= 0 {
		maxSize = PrimaryMaxSize
	}

	return &LocalDir{
		dir:     dir,
		maxSize: maxSize,
	}
}

func (l *LocalDir) Name() string {
	return "local directory " + l.dir
}

func (l *LocalDir) MaxSize() int64 {
	return l.maxSize
}

func (l *LocalDir) Send(
	ctx context.Context,
	artifact *bundle.Artifact,
	displayName string,
	sink progress.Sink,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %s", l.dir, err)
	}

	src, err := os.Open(artifact.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %s", err)
	}
	defer src.Close()

	target := filepath.Join(l.dir, common.SanitizeName(displayName)+artifact.Format.Ext())
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %s", target, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to write %s: %s", target, err)
	}

	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %s", target, err)
	}

	sink.Update(1, 1, "saved "+target)

	handle, err := filepath.Abs(target)
	if err != nil {
		return target, nil
	}

	return handle, nil
}
