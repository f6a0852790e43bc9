package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-mentor-be/pkg/graph/state"
	"ai-mentor-be/pkg/llm"
	"ai-mentor-be/pkg/memory"
	"ai-mentor-be/pkg/store"
)

// TurnResult is what one processed turn hands back to the caller.
type TurnResult struct {
	Reply      string
	Session    *store.Session
	NextNodeID string
	// Warning carries a non-fatal subsystem failure (summarization) that
	// degraded gracefully. The turn itself succeeded.
	Warning error
}

// Processor runs one conversational turn: look up the node, produce
// structured output (executor or model), merge it into the session, and
// resolve the next node. The input session is never mutated; all changes
// land on the returned copy, so a failed turn leaves state exactly as it
// was.
type Processor struct {
	graph    Graph
	provider llm.LLMProvider
	state    *state.Manager
	memory   *memory.Engine
}

func NewProcessor(graph Graph, provider llm.LLMProvider, stateManager *state.Manager, memoryEngine *memory.Engine) *Processor {
	return &Processor{
		graph:    graph,
		provider: provider,
		state:    stateManager,
		memory:   memoryEngine,
	}
}

func (p *Processor) Process(ctx context.Context, nodeID string, userMessage string, session *store.Session) (*TurnResult, error) {
	node, ok := p.graph[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}

	work := session.Clone()

	var (
		reply        string
		outputs      map[string]any
		executorNext string
	)

	if node.Executor != nil {
		res, err := node.Executor(ctx, userMessage, work)
		if err != nil {
			return nil, fmt.Errorf("executor %s: %w", nodeID, err)
		}
		reply = res.Reply
		outputs = res.Outputs
		executorNext = res.Next
	} else {
		parsed, err := p.generate(ctx, node, work, userMessage)
		if err != nil {
			return nil, err
		}
		outputs = parsed
		reply, _ = parsed["reply"].(string)
	}

	var warning error
	if err := p.state.Apply(ctx, work, nodeID, node.outputNames(), outputs, userMessage, reply); err != nil {
		if !errors.Is(err, memory.ErrSummarization) {
			return nil, err
		}
		warning = err
	}

	next := executorNext
	if next == "" && node.Next != nil {
		next = node.Next(work)
	}
	if next == "" {
		next = nodeID
	}
	if _, ok := p.graph[next]; !ok {
		return nil, fmt.Errorf("%w: transition from %s to %s", ErrUnknownNode, nodeID, next)
	}
	work.CurrentNodeID = next

	return &TurnResult{
		Reply:      reply,
		Session:    work,
		NextNodeID: next,
		Warning:    warning,
	}, nil
}

// generate calls the model and validates the response against the node's
// declared outputs. One corrective retry is allowed; after that the turn
// fails with ErrGeneration.
func (p *Processor) generate(ctx context.Context, node *Node, session *store.Session, userMessage string) (map[string]any, error) {
	memoryContext := p.memory.FormatContext(session)
	prompt := composePrompt(node, session, memoryContext, userMessage)

	raw, err := p.provider.Generate(ctx, prompt, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	parsed, validateErr := parseNodeOutput(raw, node)
	if validateErr == nil {
		return parsed, nil
	}

	corrective := prompt + "\n\n" + correctiveInstruction(validateErr)
	raw, err = p.provider.Generate(ctx, corrective, llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	parsed, validateErr = parseNodeOutput(raw, node)
	if validateErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, validateErr)
	}
	return parsed, nil
}

// parseNodeOutput extracts the JSON object from a model response and checks
// it against the node schema: keys must be a subset of the declared outputs
// and every required field must be present with the declared type.
func parseNodeOutput(raw string, node *Node) (map[string]any, error) {
	jsonText := extractJSON(raw)
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %v", err)
	}

	for key := range parsed {
		if _, ok := node.outputField(key); !ok {
			return nil, fmt.Errorf("unknown field %q", key)
		}
	}

	for _, field := range node.Outputs {
		value, present := parsed[field.Name]
		if !present || value == nil {
			if field.Required {
				return nil, fmt.Errorf("missing required field %q", field.Name)
			}
			continue
		}
		if !kindMatches(field.Kind, value) {
			return nil, fmt.Errorf("field %q has wrong type", field.Name)
		}
	}

	return parsed, nil
}

func kindMatches(kind FieldKind, value any) bool {
	switch kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindNumber:
		_, ok := value.(float64)
		return ok
	case KindList:
		_, ok := value.([]any)
		return ok
	case KindObject:
		_, ok := value.(map[string]any)
		return ok
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindAny:
		return true
	}
	return false
}

// extractJSON strips code fences and surrounding prose, keeping the
// outermost object.
func extractJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start < 0 || end <= start {
		return ""
	}
	return cleaned[start : end+1]
}

func correctiveInstruction(validateErr error) string {
	return fmt.Sprintf(
		"Your previous response was rejected: %v. Respond again with ONLY the JSON object, "+
			"using exactly the required fields and no others.", validateErr)
}
