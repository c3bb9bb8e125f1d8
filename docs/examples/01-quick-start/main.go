package main

import (
	"fmt"
	"log"

	"github.com/slidelab/annotations/pkg/annotations"
)

func main() {
	// Load an annotation document
	set, err := annotations.LoadFile("annotations.xml")
	if err != nil {
		log.Fatal(err)
	}

	// Print document info
	meta := set.Metadata()
	fmt.Printf("Image: %s\n", meta.ImageID)
	fmt.Printf("Created: %s\n", meta.DateCreated)
	fmt.Printf("Annotations: %d\n", set.Len())

	// Build the spatial index and report overall bounds
	index, err := set.BuildIndex()
	if err != nil {
		log.Fatal(err)
	}
	bounds := index.Bounds()
	fmt.Printf("Bounds: [%.1f,%.1f] to [%.1f,%.1f]\n",
		bounds.MinX, bounds.MinY,
		bounds.MaxX, bounds.MaxY)
}
