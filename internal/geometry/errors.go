package geometry

import "errors"

var (
	// ErrNotFound is returned when the geometry has no element or attribute
	// for a lookup, including unknown (wheel, sector, station) triples.
	ErrNotFound = errors.New("not found in geometry")
	// ErrOutOfRange is returned for addresses outside the detector layout.
	ErrOutOfRange = errors.New("value out of range")
	// ErrInvalidCell is returned for wire numbers outside a layer's range.
	ErrInvalidCell = errors.New("invalid cell number")
	// ErrInconsistent is returned by Validate when a frame does not enclose
	// its children or its global center disagrees with the transforms.
	ErrInconsistent = errors.New("inconsistent geometry")
)
