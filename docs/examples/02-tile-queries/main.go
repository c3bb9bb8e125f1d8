package main

import (
	"fmt"
	"log"

	"github.com/slidelab/annotations/pkg/annotations"
)

func main() {
	set, err := annotations.LoadFile("annotations.xml")
	if err != nil {
		log.Fatal(err)
	}

	index, err := set.BuildIndex()
	if err != nil {
		log.Fatal(err)
	}

	// A tiling run over pyramid level 2 (downsample 4). Tile coordinates
	// are expressed in the level's own space; results come back remapped
	// to the same space.
	level := annotations.Level{Index: 2, Downsample: 4}
	opts := annotations.DefaultQueryOptions()
	opts.Coords = annotations.CoordLevel

	const tileSize = 512
	for ty := 0; ty < 4; ty++ {
		for tx := 0; tx < 4; tx++ {
			window := annotations.WindowRect(
				float64(tx*tileSize), float64(ty*tileSize),
				tileSize, tileSize)

			hits, err := index.Query(window, level, opts)
			if err != nil {
				log.Fatal(err)
			}
			if len(hits) == 0 {
				continue
			}

			fmt.Printf("tile (%d,%d): %d annotations\n", tx, ty, len(hits))
			for _, hit := range hits {
				fmt.Printf("  %-12s %-12s overlap=%s\n",
					hit.Annotation.Label,
					hit.Annotation.Geometry.Kind(),
					hit.Overlap)
			}
		}
	}
}
