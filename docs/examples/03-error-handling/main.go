package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/slidelab/annotations/pkg/annotations"
)

func safeLoad(path string) (*annotations.AnnotationSet, error) {
	set, err := annotations.LoadFile(path)
	if err != nil {
		// The document declares a newer format version
		var verr *annotations.VersionError
		if errors.As(err, &verr) {
			return nil, fmt.Errorf("document needs migration from version %s", verr.Got)
		}

		// A schema violation, with its byte offset in the file
		var ferr *annotations.FormatError
		if errors.As(err, &ferr) {
			log.Printf("Schema violation in <%s> at offset %d: %s",
				ferr.Element, ferr.Offset, ferr.Constraint)
			return nil, err
		}

		// A geometry that fails its invariants, with its document position
		var gerr *annotations.ValidationError
		if errors.As(err, &gerr) {
			log.Printf("Bad %s %q at position %d: %s",
				gerr.Kind, gerr.Label, gerr.Pos, gerr.Reason)
			return nil, err
		}

		return nil, err
	}

	if set.Len() == 0 {
		log.Printf("Warning: %s contains no annotations", path)
	}
	return set, nil
}

func main() {
	set, err := safeLoad("annotations.xml")
	if err != nil {
		log.Printf("Error: %v", err)
		return
	}

	fmt.Printf("Loaded %d annotations for %s\n", set.Len(), set.Metadata().ImageID)

	// Querying an index that was never built is a programming error,
	// reported as a QueryError rather than an empty result.
	var stale *annotations.Index
	_, err = stale.Query(annotations.WindowRect(0, 0, 512, 512),
		annotations.BaseLevel, annotations.DefaultQueryOptions())
	var qerr *annotations.QueryError
	if errors.As(err, &qerr) {
		log.Printf("Expected error: %v", qerr)
	}
}
