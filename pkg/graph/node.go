package graph

import (
	"context"

	"ai-mentor-be/pkg/store"
)

// FieldKind is the expected JSON type of one declared node output.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindList
	KindObject
	KindBool
	// KindAny accepts any JSON value. Used for fields like user_age where
	// the model may answer with a number or the literal "unknown".
	KindAny
)

// OutputField declares one key the model may return for a node.
type OutputField struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// ExecutorResult is what a deterministic node produces instead of a model
// call: a reply (possibly empty), output fields, and the next node id.
type ExecutorResult struct {
	Reply   string
	Outputs map[string]any
	Next    string
}

// ExecutorFunc runs in place of the generative model. It must be pure aside
// from reading the session and must not persist anything itself.
type ExecutorFunc func(ctx context.Context, userMessage string, session *store.Session) (*ExecutorResult, error)

// NextFunc resolves the next node id from the merged session state. It runs
// after the turn's outputs are applied, so it never sees stale fields.
type NextFunc func(session *store.Session) string

// Node is one dialogue state. Nodes are built once at process start and
// never mutated; only the session's current node pointer moves.
type Node struct {
	ID           string
	SystemPrompt string
	// Instructions is the JSON-format contract appended to the prompt of a
	// generative node. Unused when Executor is set.
	Instructions string
	Outputs      []OutputField
	Executor     ExecutorFunc
	Next         NextFunc
}

// Graph maps node id to its immutable definition.
type Graph map[string]*Node

func (n *Node) outputNames() []string {
	names := make([]string, len(n.Outputs))
	for i, f := range n.Outputs {
		names[i] = f.Name
	}
	return names
}

func (n *Node) outputField(name string) (OutputField, bool) {
	for _, f := range n.Outputs {
		if f.Name == name {
			return f, true
		}
	}
	return OutputField{}, false
}
