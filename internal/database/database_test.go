package database

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/klokku/meeting-scheduler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionUrl(t *testing.T) {
	// given
	cfg := config.Database{
		Host:   "db.local",
		Port:   5433,
		User:   "scheduler",
		Pass:   "p@ss'word",
		Name:   "meetings",
		Schema: "scheduler",
	}

	// when
	raw := connectionUrl(cfg)

	// then
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "postgres", parsed.Scheme)
	assert.Equal(t, "db.local:5433", parsed.Host)
	assert.Equal(t, "/meetings", parsed.Path)
	password, _ := parsed.User.Password()
	assert.Equal(t, "p@ss'word", password)
	assert.Equal(t, "scheduler", parsed.Query().Get("search_path"))
	assert.Equal(t, "disable", parsed.Query().Get("sslmode"))
}

func TestFindMigrationsPath(t *testing.T) {
	// given
	root := t.TempDir()
	nested := filepath.Join(root, "pkg", "calendar")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "migrations"), 0755))
	require.NoError(t, os.MkdirAll(nested, 0755))
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.Chdir(nested))

	// when
	path, err := findMigrationsPath()

	// then
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(filepath.Join(root, "migrations"))
	require.NoError(t, err)
	actual, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}
