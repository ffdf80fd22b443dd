// Package project provides georeferencing project files (.georef.json).
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Ext is the project file extension.
const Ext = ".georef.json"

// File represents a georeferencing project. Paths are stored relative to the
// project file.
type File struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Description string    `json:"description,omitempty"`

	DrawingPath string `json:"drawing,omitempty"`
	ControlPath string `json:"control,omitempty"`
	LocalPath   string `json:"local,omitempty"`
	OutputPath  string `json:"output,omitempty"`

	// Result of the last run
	RMSE float64 `json:"rmse,omitempty"`

	Settings Settings `json:"settings,omitempty"`
}

// Settings holds per-project overrides. Zero values leave the configured
// defaults in place.
type Settings struct {
	Model            string  `json:"model,omitempty"`
	FlattenTolerance float64 `json:"flatten_tolerance,omitempty"`
	InvertY          *bool   `json:"invert_y,omitempty"`
	MarkerFill       string  `json:"marker_fill,omitempty"`
}

// New creates a new project file.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Created:  now,
		Modified: now,
	}
}

// Load loads a project from a .georef.json file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}

	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetDrawing sets the drawing path (relative to project).
func (p *File) SetDrawing(projectPath, path string) {
	p.DrawingPath = relative(projectPath, path)
	p.Modified = time.Now()
}

// SetControl sets the control point path (relative to project).
func (p *File) SetControl(projectPath, path string) {
	p.ControlPath = relative(projectPath, path)
	p.Modified = time.Now()
}

// SetLocal sets the local point path (relative to project).
func (p *File) SetLocal(projectPath, path string) {
	p.LocalPath = relative(projectPath, path)
	p.Modified = time.Now()
}

// SetOutput sets the output path (relative to project).
func (p *File) SetOutput(projectPath, path string) {
	p.OutputPath = relative(projectPath, path)
	p.Modified = time.Now()
}

// GetDrawingPath returns the absolute path to the drawing.
func (p *File) GetDrawingPath(projectPath string) string {
	return resolve(projectPath, p.DrawingPath)
}

// GetControlPath returns the absolute path to the control points.
func (p *File) GetControlPath(projectPath string) string {
	return resolve(projectPath, p.ControlPath)
}

// GetLocalPath returns the absolute path to the local points, or "" when
// markers in the drawing are used instead.
func (p *File) GetLocalPath(projectPath string) string {
	return resolve(projectPath, p.LocalPath)
}

// GetOutputPath returns the absolute path to the output file.
func (p *File) GetOutputPath(projectPath string) string {
	if p.OutputPath == "" {
		// Default: project_name.geojson
		return strings.TrimSuffix(projectPath, Ext) + ".geojson"
	}
	return resolve(projectPath, p.OutputPath)
}

func relative(projectPath, path string) string {
	rel, err := filepath.Rel(filepath.Dir(projectPath), path)
	if err != nil {
		return path
	}
	return rel
}

func resolve(projectPath, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(projectPath), path)
}
