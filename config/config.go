// Package config reads and writes the evampp.yaml module file.
package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/evampp/errors"
	"github.com/ztrue/tracerr"
	"gopkg.in/yaml.v2"
)

const FileName = "evampp.yaml"

// Extension is the suffix of Eva source files.
const Extension = ".eva"

type Module struct {
	Package  string `yaml:"package"`
	Entry    string `yaml:"entry,omitempty"`
	OutDir   string `yaml:"outDir,omitempty"`
	Indent   int    `yaml:"indent,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`
}

func Default(name string) Module {
	return Module{
		Package:  name,
		Entry:    name + Extension,
		OutDir:   "out",
		Indent:   2,
		LogLevel: "INFO",
	}
}

// fill sets unset fields from the defaults of m's package.
func (m Module) fill() Module {
	def := Default(m.Package)
	if m.Entry == "" {
		m.Entry = def.Entry
	}
	if m.OutDir == "" {
		m.OutDir = def.OutDir
	}
	if m.Indent == 0 {
		m.Indent = def.Indent
	}
	if m.LogLevel == "" {
		m.LogLevel = def.LogLevel
	}
	return m
}

func (m Module) Validate(path string) error {
	switch {
	case m.Package == "":
		return errors.InvalidConfig{Path: path, Field: "package", Reason: "must not be empty"}
	case strings.ContainsAny(m.Package, `/\`):
		return errors.InvalidConfig{Path: path, Field: "package", Reason: "must not contain a path separator"}
	case m.Indent < 0 || m.Indent > 8:
		return errors.InvalidConfig{Path: path, Field: "indent", Reason: "must be between 0 and 8"}
	}
	if _, err := m.Level(); err != nil {
		return errors.InvalidConfig{Path: path, Field: "logLevel", Reason: err.Error()}
	}
	return nil
}

func (m Module) Level() (capnslog.LogLevel, error) {
	return capnslog.ParseLevel(strings.ToUpper(m.LogLevel))
}

// Output is the path of the compiled JavaScript for the entry file.
func (m Module) Output() string {
	return filepath.Join(m.OutDir, m.Package+".js")
}

func Load(path string) (Module, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Module{}, tracerr.Wrap(err)
	}

	var m Module
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return Module{}, tracerr.Wrap(err)
	}

	m = m.fill()
	if err := m.Validate(path); err != nil {
		return Module{}, tracerr.Wrap(err)
	}
	return m, nil
}

// LoadOrDefault loads path, falling back to the defaults for fallback when
// the file does not exist.
func LoadOrDefault(path, fallback string) (Module, error) {
	m, err := Load(path)
	if os.IsNotExist(tracerr.Unwrap(err)) {
		return Default(fallback), nil
	}
	return m, err
}

func Save(path string, m Module) error {
	if err := m.Validate(path); err != nil {
		return tracerr.Wrap(err)
	}

	out, err := yaml.Marshal(m)
	if err != nil {
		return tracerr.Wrap(err)
	}
	return tracerr.Wrap(ioutil.WriteFile(path, out, 0644))
}
