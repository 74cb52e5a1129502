package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	var out bytes.Buffer
	cmd := newRootCmd(&flags{})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_NoServers(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"BasePath": "`+filepath.ToSlash(dir)+`", "Servers": []}`), 0644))

	out, err := execute(t, "--config", cfgPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "0 ok, 0 created, 0 updated, 0 failed, 0 missing, 0 errors")
}

func TestRootCmd_ContextExcludesEverything(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	content := `{"BasePath": "` + filepath.ToSlash(dir) + `", "Servers": [{"Id": "prod", "ServerName": "db01", "Database": "Sales"}]}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	out, err := execute(t, "--config", cfgPath, "--context", "test,dev", "--log-level", "error")
	require.NoError(t, err)
	assert.NotContains(t, out, "Checking")
}

func TestRootCmd_MissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRootCmd_InvalidLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize logger")
}

func TestRootCmd_Flags(t *testing.T) {
	f := &flags{}
	cmd := newRootCmd(f)
	require.NoError(t, cmd.ParseFlags([]string{"--create", "--update", "--ascii", "--context", "a,b", "--context", "c"}))

	assert.True(t, f.create)
	assert.True(t, f.update)
	assert.True(t, f.ascii)
	assert.False(t, f.pick)
	assert.Equal(t, []string{"a", "b", "c"}, f.contexts)
}
