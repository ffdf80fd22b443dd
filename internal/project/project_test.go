package project

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRelativePaths(t *testing.T) {
	dir := t.TempDir()
	projPath := filepath.Join(dir, "site"+Ext)

	p := New("site")
	p.SetDrawing(projPath, filepath.Join(dir, "plans", "level1.svg"))
	p.SetControl(projPath, filepath.Join(dir, "control.geojson"))
	invert := false
	p.Settings = Settings{Model: "similarity", InvertY: &invert}
	require.NoError(t, p.Save(projPath))

	got, err := Load(projPath)
	require.NoError(t, err)
	assert.Equal(t, "site", got.Name)
	assert.Equal(t, filepath.Join("plans", "level1.svg"), got.DrawingPath)
	assert.Equal(t, filepath.Join(dir, "plans", "level1.svg"), got.GetDrawingPath(projPath))
	assert.Equal(t, filepath.Join(dir, "control.geojson"), got.GetControlPath(projPath))
	assert.Equal(t, "", got.GetLocalPath(projPath))
	assert.Equal(t, "similarity", got.Settings.Model)
	require.NotNil(t, got.Settings.InvertY)
	assert.False(t, *got.Settings.InvertY)
}

func TestOutputPathDefault(t *testing.T) {
	p := New("site")
	projPath := filepath.Join("work", "site"+Ext)
	assert.Equal(t, filepath.Join("work", "site.geojson"), p.GetOutputPath(projPath))

	p.SetOutput(projPath, filepath.Join("work", "out", "plan.geojson"))
	assert.Equal(t, filepath.Join("work", "out", "plan.geojson"), p.GetOutputPath(projPath))
}

func TestAbsolutePathKept(t *testing.T) {
	p := New("site")
	p.LocalPath = "/data/local.yml"
	assert.Equal(t, "/data/local.yml", p.GetLocalPath("/elsewhere/site"+Ext))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"+Ext))
	assert.Error(t, err)
}
