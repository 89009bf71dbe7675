package base

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// ReadFunc decodes one file
type ReadFunc func(r io.Reader) (*models.Table, error)

// WriteFunc encodes one table
type WriteFunc func(w io.Writer, t *models.Table) error

// ExtractFiles lists the selected files and streams one package per file,
// named after the file stem. Files are opened only as the stream is consumed.
func ExtractFiles(ctx context.Context, sel *FileSelector, log *zap.Logger, read ReadFunc) (*core.PackageStream, error) {
	files, err := sel.Files()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeExtraction, "failed to select source files")
	}
	if len(files) == 0 {
		log.Warn("no matching source files", zap.String("path", sel.Dir))
	}

	return core.NewStream(ctx, func(ctx context.Context, emit core.EmitFunc) error {
		for _, path := range files {
			log.Info("extracting file", zap.String("file", path))
			tbl, err := readFile(path, read)
			if err != nil {
				return err
			}
			if err := emit(&core.DataPackage{Name: Stem(path), Table: tbl}); err != nil {
				return err
			}
		}
		return nil
	}), nil
}

func readFile(path string, read ReadFunc) (*models.Table, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from a configured directory listing
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").WithDetail("path", path)
	}
	defer f.Close()
	tbl, err := read(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeExtraction, "failed to decode file").WithDetail("path", path)
	}
	return tbl, nil
}

// FileTarget writes each package to <Dir>/<Filename or package name><Ext>.
// When the file exists, its rows are kept and the package rows appended.
type FileTarget struct {
	Dir      string
	Filename string
	Ext      string
	Read     ReadFunc
	Write    WriteFunc
	Log      *zap.Logger
}

// Path returns the destination file of a package
func (t *FileTarget) Path(pkgName string) string {
	name := t.Filename
	if name == "" {
		name = pkgName
	}
	name = strings.TrimSuffix(name, filepath.Ext(name)) + t.Ext
	return filepath.Join(t.Dir, name)
}

// Check reports whether the target directory exists
func (t *FileTarget) Check() bool {
	info, err := os.Stat(t.Dir)
	return err == nil && info.IsDir()
}

// Load consumes the stream
func (t *FileTarget) Load(ctx context.Context, stream *core.PackageStream) error {
	return stream.Each(ctx, func(pkg *core.DataPackage) error {
		path := t.Path(pkg.Name)
		t.Log.Info("loading package into file", zap.String("package", pkg.Name), zap.String("file", path))
		return t.writePackage(path, pkg.Table)
	})
}

func (t *FileTarget) writePackage(path string, tbl *models.Table) error {
	if _, err := os.Stat(path); err == nil {
		existing, err := readFile(path, t.Read)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeLoad, "failed to read existing target file")
		}
		tbl = existing.Append(tbl)
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to stat target file").WithDetail("path", path)
	}

	var buf bytes.Buffer
	if err := t.Write(&buf, tbl); err != nil {
		return errors.Wrap(err, errors.ErrorTypeLoad, "failed to encode package").WithDetail("path", path)
	}
	return WriteFileAtomic(path, buf.Bytes())
}

// WriteFileAtomic replaces path with data through a temporary sibling file
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create temporary file").WithDetail("path", path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write temporary file").WithDetail("path", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close temporary file").WithDetail("path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to move file into place").WithDetail("path", path)
	}
	return nil
}
