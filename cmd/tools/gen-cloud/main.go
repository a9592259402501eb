// Command gen-cloud generates a synthetic forest point cloud for testing and
// demos. Trees are placed at random positions in a square plot; each crown is
// a Gaussian blob of lidar returns centered below the tree top.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/banshee-data/crownshift/internal/crown"
)

func main() {
	output := flag.String("o", "cloud.xyz", "output path; '-' for stdout")
	trees := flag.Int("trees", 20, "number of trees")
	pointsPerTree := flag.Int("points", 200, "lidar returns per tree")
	area := flag.Float64("area", 50, "plot side length in meters")
	heightMin := flag.Float64("height-min", 10, "minimum tree height")
	heightMax := flag.Float64("height-max", 30, "maximum tree height")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	cloud := make([]crown.Point, 0, (*trees)*(*pointsPerTree))

	for t := 0; t < *trees; t++ {
		tx := rng.Float64() * *area
		ty := rng.Float64() * *area
		th := *heightMin + rng.Float64()*(*heightMax-*heightMin)

		// Crown proportions follow the default shape ratios: diameter 0.6
		// and depth 0.5 of tree height. Returns concentrate in the upper
		// crown, a quarter crown-depth below the top.
		crownRadius := 0.6 * th / 2
		crownDepth := 0.5 * th
		centerZ := th - crownDepth/4

		for p := 0; p < *pointsPerTree; p++ {
			cloud = append(cloud, crown.Point{
				X: tx + rng.NormFloat64()*crownRadius/2,
				Y: ty + rng.NormFloat64()*crownRadius/2,
				Z: centerZ + rng.NormFloat64()*crownDepth/4,
			})
		}
	}

	if err := writeCloud(*output, cloud); err != nil {
		log.Fatalf("gen-cloud: %v", err)
	}
	log.Printf("✓ Created: %s (%d trees, %d points)", *output, *trees, len(cloud))
}

func writeCloud(path string, cloud []crown.Point) error {
	w := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	for _, p := range cloud {
		if _, err := fmt.Fprintf(w, "%.3f %.3f %.3f\n", p.X, p.Y, p.Z); err != nil {
			return err
		}
	}
	return nil
}
