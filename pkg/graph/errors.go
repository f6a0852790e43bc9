package graph

import "errors"

var (
	// ErrUnknownNode means the graph has no node with the requested id.
	// This is a programmer error, not a runtime condition to retry.
	ErrUnknownNode = errors.New("unknown node")

	// ErrGeneration means the model's output could not be validated against
	// the node's schema even after a corrective retry. The turn fails and
	// session state stays untouched, so retrying the same input is safe.
	ErrGeneration = errors.New("generation failed")
)
