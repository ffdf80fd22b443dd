// Command fitcheck fits control points without touching the drawing geometry
// and prints the transform with its residuals.
package main

import (
	"flag"
	"fmt"
	"os"

	"floorplan-georef/internal/config"
	"floorplan-georef/internal/controlpoints"
	"floorplan-georef/internal/drawing"
	"floorplan-georef/internal/georef"
)

func main() {
	control := flag.String("c", "", "Path to control point GeoJSON")
	local := flag.String("l", "", "Path to local point file")
	svg := flag.String("d", "", "Path to drawing with reference markers (when -l is not given)")
	model := flag.String("model", "auto", "Transform model: auto, similarity or affine")
	invertY := flag.Bool("invert-y", true, "Drawing y axis points down")
	fill := flag.String("marker-fill", drawing.DefaultMarkerFill, "Marker fill colour")
	configFile := flag.String("config", "", "YAML config file")
	flag.Parse()

	if *control == "" || (*local == "" && *svg == "") {
		fmt.Println("Usage: fitcheck -c <control.geojson> (-l <local.yml> | -d <drawing.svg>) [-model affine] [-config georef.yml]")
		os.Exit(1)
	}

	overrides := make(map[string]any)
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			overrides["model"] = *model
		case "invert-y":
			overrides["invert_y"] = *invertY
		case "marker-fill":
			overrides["marker_fill"] = *fill
		}
	})
	cfg, err := loadConfig(*configFile, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}

	opts, err := cfg.EstimateOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	norm := cfg.DrawingOptions().Normalizer()

	cf, err := os.Open(*control)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open control points: %v\n", err)
		os.Exit(1)
	}
	geo, err := controlpoints.ReadGeoJSON(cf)
	cf.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read control points: %v\n", err)
		os.Exit(1)
	}

	var localPts []controlpoints.Point
	if *local != "" {
		localPts, err = readLocal(*local, norm)
	} else {
		localPts, err = readMarkers(*svg, cfg.MarkerFill(), norm)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read local points: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Control points: %d local, %d geographic ===\n", len(localPts), len(geo))
	set, err := controlpoints.Pair(localPts, geo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pairing failed: %v\n", err)
		os.Exit(1)
	}

	t, diag, err := georef.EstimateWithOptions(set, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fit failed: %v\n", err)
		os.Exit(1)
	}

	a := t.Affine
	fmt.Printf("\n=== %s transform ===\n", t.Model)
	fmt.Printf("  [%.10g %.10g %.10g]\n", a.A, a.B, a.TX)
	fmt.Printf("  [%.10g %.10g %.10g]\n", a.C, a.D, a.TY)
	fmt.Printf("  rotation: %.4f deg\n", a.RotationDegrees())
	fmt.Printf("  scale:    x=%.6g y=%.6g\n", a.ScaleX(), a.ScaleY())
	if a.Det() < 0 {
		fmt.Println("  mirrored: yes (check -invert-y)")
	}
	fmt.Printf("  condition number: %.4g\n", diag.ConditionNumber)

	// geographic residuals mapped back into drawing units
	inv, ok := a.Inverse()

	fmt.Printf("\n=== Residuals ===\n")
	fmt.Printf("  %4s %6s %14s %14s %14s %14s\n", "#", "id", "dx", "dy", "error", "drawing err")
	for _, r := range diag.Residuals {
		local := "-"
		if ok {
			cp := set.At(r.Index)
			local = fmt.Sprintf("%.6g", inv.Apply(cp.Geo).Distance(cp.Local))
		}
		fmt.Printf("  %4d %6d %14.6g %14.6g %14.6g %14s\n", r.Index, r.ID, r.DX, r.DY, r.Error, local)
	}
	fmt.Printf("\n  RMSE: %.6g  max: %.6g\n", diag.RMSE, diag.MaxError)
}

// loadConfig layers settings the way georef does: defaults, config file,
// GEOREF_* environment, then explicitly set flags.
func loadConfig(file string, overrides map[string]any) (*config.Config, error) {
	cfg := config.New()
	if file != "" {
		if err := cfg.Load(file); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	for k, v := range overrides {
		if err := cfg.Set(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func readLocal(path string, norm drawing.Normalizer) ([]controlpoints.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pts, err := controlpoints.ReadLocal(f)
	if err != nil {
		return nil, err
	}
	return controlpoints.Normalize(pts, norm), nil
}

func readMarkers(path, fill string, norm drawing.Normalizer) ([]controlpoints.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := drawing.Parse(f)
	if err != nil {
		return nil, err
	}
	markers, err := doc.Markers(drawing.MarkerOptions{Fill: fill}, norm)
	if err != nil {
		return nil, err
	}
	if len(markers) == 0 {
		return nil, controlpoints.ErrNoControlPoints
	}
	return controlpoints.FromMarkers(markers), nil
}
