package config

import (
	stderrors "errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/evampp/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	m := Default("hello")
	m.Indent = 4

	require.NoError(t, Save(path, m))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m, got)
	assert.Equal(t, filepath.Join("out", "hello.js"), got.Output())
}

func TestLoadFillsDefaults(t *testing.T) {
	got, err := Load(write(t, "package: app\n"))
	require.NoError(t, err)
	assert.Equal(t, Default("app"), got)
}

func TestLoadUnknownField(t *testing.T) {
	_, err := Load(write(t, "package: app\ncolour: blue\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name  string
		yaml  string
		field string
	}{
		{"missing package", "indent: 2\n", "package"},
		{"separator in package", "package: a/b\n", "package"},
		{"indent too wide", "package: a\nindent: 12\n", "indent"},
		{"bad log level", "package: a\nlogLevel: LOUD\n", "logLevel"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(write(t, c.yaml))
			require.Error(t, err)

			var ic errors.InvalidConfig
			require.True(t, stderrors.As(err, &ic), "got %v", err)
			assert.Equal(t, c.field, ic.Field)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	got, err := LoadOrDefault(filepath.Join(t.TempDir(), FileName), "main")
	require.NoError(t, err)
	assert.Equal(t, Default("main"), got)

	_, err = LoadOrDefault(write(t, "package: [\n"), "main")
	assert.Error(t, err)
}

func TestLevel(t *testing.T) {
	m := Default("a")
	m.LogLevel = "debug"

	level, err := m.Level()
	require.NoError(t, err)
	assert.Equal(t, capnslog.DEBUG, level)
}

func TestSaveRejectsInvalid(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), FileName), Module{})
	assert.Error(t, err)
}
