// Package cloudio reads point clouds from plain-text XYZ/CSV files and
// writes segmentation result tables as CSV. These are the only boundary
// formats; everything in between is in-memory.
package cloudio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/crownshift/internal/crown"
)

// ReadCloud parses a point cloud from r. Each non-empty line carries at
// least three fields (x, y, z) separated by commas or whitespace; extra
// fields are ignored. Lines starting with '#' are comments. A first line
// whose fields are not numeric is treated as a header and skipped.
func ReadCloud(r io.Reader) ([]crown.Point, error) {
	var cloud []crown.Point
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	headerSkipped := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := splitFields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: want at least 3 coordinates, got %d fields", lineNo, len(fields))
		}

		p, err := parsePoint(fields)
		if err != nil {
			// Tolerate a single non-numeric header row at the top.
			if len(cloud) == 0 && !headerSkipped {
				headerSkipped = true
				continue
			}
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		cloud = append(cloud, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cloud: %w", err)
	}
	return cloud, nil
}

// ReadCloudFile reads a point cloud from the file at path.
func ReadCloudFile(path string) ([]crown.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cloud file: %w", err)
	}
	defer f.Close()
	return ReadCloud(f)
}

func splitFields(line string) []string {
	if strings.Contains(line, ",") {
		parts := strings.Split(line, ",")
		fields := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				fields = append(fields, p)
			}
		}
		return fields
	}
	return strings.Fields(line)
}

func parsePoint(fields []string) (crown.Point, error) {
	var coords [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return crown.Point{}, fmt.Errorf("invalid coordinate %q", fields[i])
		}
		coords[i] = v
	}
	return crown.Point{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// WriteModes writes the result table to w as CSV with a header row. Row
// order matches the table, so row i corresponds to input point i.
func WriteModes(w io.Writer, results []crown.PointMode) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "z", "mode_x", "mode_y", "mode_z"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		record := []string{
			formatCoord(r.Point.X), formatCoord(r.Point.Y), formatCoord(r.Point.Z),
			formatCoord(r.Mode.X), formatCoord(r.Mode.Y), formatCoord(r.Mode.Z),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write mode row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteModesFile writes the result table to the file at path.
func WriteModesFile(path string, results []crown.PointMode) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create modes file: %w", err)
	}
	if err := WriteModes(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
