// Package confkit holds the config loading helpers shared by the commands:
// go-zero file loading, side-file sections and .env bootstrap.
package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"
)

// ResolvePath expands environment variables in file and, when the result is
// relative, joins it onto base.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// LoadFile loads a go-zero config file into a new T, optionally expanding
// ${ENV} references.
func LoadFile[T any](path string, useEnv bool) (*T, error) {
	var cfg T
	var opts []conf.Option
	if useEnv {
		opts = append(opts, conf.UseEnv())
	}
	if err := conf.Load(path, &cfg, opts...); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &cfg, nil
}

// Section is a config block that lives in its own file, referenced from the
// main config by File and parsed by a package-specific loader.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Hydrate resolves File against base and loads it into Value. An empty File
// leaves the section untouched.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if strings.TrimSpace(s.File) == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return err
	}
	s.File, s.Value = p, v
	return nil
}

// Loaded reports whether the section carries a value.
func (s Section[T]) Loaded() bool {
	return s.Value != nil
}

// Describe renders where the section came from.
func (s Section[T]) Describe() string {
	switch {
	case strings.TrimSpace(s.File) != "":
		return s.File
	case s.Value != nil:
		return "inline"
	default:
		return "not configured"
	}
}
