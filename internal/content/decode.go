package content

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/myrjola/deduce/internal/gameerr"
	"gopkg.in/yaml.v3"
	"io/fs"
	"log/slog"
	"path"
)

var extensions = []string{".json", ".yaml", ".yml"}

// decode reads the first of name.json, name.yaml and name.yml that exists into v.
func decode(ctx context.Context, fsys fs.FS, name string, v any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, "load content", slog.String("name", name))
	}
	for _, ext := range extensions {
		file := name + ext
		data, err := fs.ReadFile(fsys, file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", errors.Wrap(err, "read content file", slog.String("file", file))
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return "", errors.Wrap(gameerr.ErrInvalidData, "content file is empty", slog.String("file", file))
		}
		if path.Ext(file) == ".json" {
			err = json.Unmarshal(data, v)
		} else {
			err = yaml.Unmarshal(data, v)
		}
		if err != nil {
			return "", errors.Wrap(gameerr.ErrInvalidData, "decode content file",
				slog.String("file", file), slog.String("cause", err.Error()))
		}
		return file, nil
	}
	return "", errors.Wrap(gameerr.ErrNotFound, "content file not found", slog.String("name", name))
}

// exists reports whether any supported variant of name exists.
func exists(fsys fs.FS, name string) bool {
	for _, ext := range extensions {
		if _, err := fs.Stat(fsys, name+ext); err == nil {
			return true
		}
	}
	return false
}
