package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"floorplan-georef/internal/project"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOutputReplacesFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "plan.geojson")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0o644))

	err := writeOutput(out, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteOutputFailureKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "plan.geojson")
	require.NoError(t, os.WriteFile(out, []byte("old"), 0o644))

	boom := errors.New("disk full")
	err := writeOutput(out, func(w io.Writer) error {
		_, _ = io.WriteString(w, `{"type":"Feature`)
		return boom
	})
	require.ErrorIs(t, err, boom)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestWriteOutputFailureCreatesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "plan.geojson")

	err := writeOutput(out, func(io.Writer) error { return errors.New("fail") })
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestInitProject(t *testing.T) {
	dir := t.TempDir()
	projPath := filepath.Join(dir, "site"+project.Ext)
	drawingPath := filepath.Join(dir, "plans", "level1.svg")
	controlPath := filepath.Join(dir, "control.geojson")
	localPath := filepath.Join(dir, "local.yml")

	o := options{model: "similarity", invertY: false, local: localPath, output: "-"}
	set := map[string]bool{"model": true, "invert-y": true, "local": true, "o": true}
	require.NoError(t, initProject(projPath, o, set, []string{drawingPath, controlPath}))

	p, err := project.Load(projPath)
	require.NoError(t, err)
	assert.Equal(t, "site", p.Name)
	assert.Equal(t, filepath.Join("plans", "level1.svg"), p.DrawingPath)
	assert.Equal(t, drawingPath, p.GetDrawingPath(projPath))
	assert.Equal(t, controlPath, p.GetControlPath(projPath))
	assert.Equal(t, localPath, p.GetLocalPath(projPath))
	// stdout output is not recorded
	assert.Equal(t, "", p.OutputPath)

	assert.Equal(t, "similarity", p.Settings.Model)
	require.NotNil(t, p.Settings.InvertY)
	assert.False(t, *p.Settings.InvertY)
	assert.Equal(t, "", p.Settings.MarkerFill)

	// never overwrites
	assert.Error(t, initProject(projPath, o, set, []string{drawingPath, controlPath}))
}

func TestInitProjectNeedsInputs(t *testing.T) {
	projPath := filepath.Join(t.TempDir(), "site"+project.Ext)
	assert.Error(t, initProject(projPath, options{}, nil, []string{"only.svg"}))
	_, err := os.Stat(projPath)
	assert.True(t, os.IsNotExist(err))
}
