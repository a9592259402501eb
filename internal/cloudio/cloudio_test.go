package cloudio

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/banshee-data/crownshift/internal/crown"
)

func TestReadCloud_Whitespace(t *testing.T) {
	input := `# synthetic plot
10.5 20.25 15
11 21 16.5

12 22 17
`
	cloud, err := ReadCloud(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCloud failed: %v", err)
	}
	want := []crown.Point{
		{X: 10.5, Y: 20.25, Z: 15},
		{X: 11, Y: 21, Z: 16.5},
		{X: 12, Y: 22, Z: 17},
	}
	assertCloud(t, cloud, want)
}

func TestReadCloud_CSVWithHeader(t *testing.T) {
	input := "x,y,z\n1.0,2.0,3.0\n4.0,5.0,6.0\n"
	cloud, err := ReadCloud(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCloud failed: %v", err)
	}
	want := []crown.Point{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}
	assertCloud(t, cloud, want)
}

func TestReadCloud_ExtraColumnsIgnored(t *testing.T) {
	input := "1 2 3 42 0.5\n"
	cloud, err := ReadCloud(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCloud failed: %v", err)
	}
	assertCloud(t, cloud, []crown.Point{{X: 1, Y: 2, Z: 3}})
}

func TestReadCloud_Errors(t *testing.T) {
	t.Run("too few fields", func(t *testing.T) {
		if _, err := ReadCloud(strings.NewReader("1 2\n")); err == nil {
			t.Error("expected error for 2-field line")
		}
	})
	t.Run("bad number mid-file", func(t *testing.T) {
		if _, err := ReadCloud(strings.NewReader("1 2 3\nfoo bar baz\n")); err == nil {
			t.Error("expected error for non-numeric data row")
		}
	})
}

func TestWriteModes_RoundTrip(t *testing.T) {
	results := []crown.PointMode{
		{Point: crown.Point{X: 1, Y: 2, Z: 3}, Mode: crown.Mode{X: 1.5, Y: 2.5, Z: 3.5}},
		{Point: crown.Point{X: -4, Y: 5, Z: 6}, Mode: crown.Mode{X: -3.5, Y: 5.5, Z: 6.5}},
	}

	var buf bytes.Buffer
	if err := WriteModes(&buf, results); err != nil {
		t.Fatalf("WriteModes failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	if lines[0] != "x,y,z,mode_x,mode_y,mode_z" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "1,2,3,1.5,2.5,3.5" {
		t.Errorf("row 1 = %q", lines[1])
	}

	// The original coordinates of the output parse back as a cloud.
	cloud, err := ReadCloud(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("re-reading output failed: %v", err)
	}
	assertCloud(t, cloud, []crown.Point{{X: 1, Y: 2, Z: 3}, {X: -4, Y: 5, Z: 6}})
}

func TestWriteModes_NaNModes(t *testing.T) {
	nan := math.NaN()
	results := []crown.PointMode{
		{Point: crown.Point{X: 0, Y: 0, Z: -1}, Mode: crown.Mode{X: nan, Y: nan, Z: nan}},
	}
	var buf bytes.Buffer
	if err := WriteModes(&buf, results); err != nil {
		t.Fatalf("WriteModes failed: %v", err)
	}
	if !strings.Contains(buf.String(), "NaN") {
		t.Errorf("degenerate mode should serialize as NaN, got %q", buf.String())
	}
}

func assertCloud(t *testing.T, got, want []crown.Point) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d points, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
