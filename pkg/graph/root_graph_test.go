package graph

import (
	"context"
	"fmt"
	"testing"

	"ai-mentor-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopRetrieve(ctx context.Context, userMessage string, session *store.Session) (*ExecutorResult, error) {
	return &ExecutorResult{Next: "generate_plan"}, nil
}

func TestRootGraphIsClosed(t *testing.T) {
	g := NewRootGraph(noopRetrieve)

	require.Contains(t, g, EntryNodeID)

	// Every Next resolution from any reachable field state must land on a
	// defined node. Probe with both an empty session and a fully collected
	// one for each node.
	full := store.NewSession("probe", EntryNodeID)
	full.Fields = map[string]any{
		"user_name": "Dina", "user_age": float64(24),
		"goal_type":         "career_improve",
		"job_circumstances": map[string]any{"role": "analyst"},
		"skills":            []any{"excel"},
		"interests":         []any{"data"},
		"goals":             []any{"learn sql"},
		"lost_skills":       "burnout",
	}
	full.CurrentPeriod = 13

	for id, node := range g {
		if node.Next == nil {
			continue
		}
		for _, session := range []*store.Session{store.NewSession("probe", id), full} {
			next := node.Next(session)
			assert.Contains(t, g, next, "node %s resolved to undefined node %s", id, next)
		}
	}
}

func TestCollectBasicInfoGating(t *testing.T) {
	g := NewRootGraph(noopRetrieve)
	next := g["collect_basic_info"].Next

	session := store.NewSession("s1", "collect_basic_info")
	assert.Equal(t, "collect_basic_info", next(session))

	session.Fields["user_name"] = "unknown"
	session.Fields["user_age"] = float64(30)
	assert.Equal(t, "collect_basic_info", next(session))

	session.Fields["user_name"] = "Dina"
	session.Fields["user_age"] = nil
	assert.Equal(t, "collect_basic_info", next(session))

	session.Fields["user_age"] = "unknown"
	assert.Equal(t, "classify_category", next(session))

	session.Fields["user_age"] = float64(30)
	assert.Equal(t, "classify_category", next(session))
}

func TestClassifyCategoryRouting(t *testing.T) {
	g := NewRootGraph(noopRetrieve)
	next := g["classify_category"].Next

	tests := []struct {
		goalType string
		want     string
	}{
		{"career_improve", "improve_intro"},
		{"career_change", "change_intro"},
		{"career_find", "find_intro"},
		{"no_goal", "lost_intro"},
		{"", "classify_category"},
		{"something_else", "classify_category"},
	}

	for _, tt := range tests {
		t.Run(tt.goalType, func(t *testing.T) {
			session := store.NewSession("s1", "classify_category")
			if tt.goalType != "" {
				session.Fields["goal_type"] = tt.goalType
			}
			assert.Equal(t, tt.want, next(session))
		})
	}
}

func TestSkillsNodesLoopUntilCollected(t *testing.T) {
	g := NewRootGraph(noopRetrieve)

	session := store.NewSession("s1", "improve_skills")
	assert.Equal(t, "improve_skills", g["improve_skills"].Next(session))

	session.Fields["skills"] = []any{}
	assert.Equal(t, "improve_skills", g["improve_skills"].Next(session))

	session.Fields["skills"] = []any{"writing"}
	assert.Equal(t, "improve_obstacles", g["improve_skills"].Next(session))
}

func TestObstaclesLeadToRetrieval(t *testing.T) {
	g := NewRootGraph(noopRetrieve)

	for _, nodeID := range []string{"improve_obstacles", "change_obstacles", "find_obstacles"} {
		session := store.NewSession("s1", nodeID)
		assert.Equal(t, nodeID, g[nodeID].Next(session))

		session.Fields["goals"] = []any{"network more"}
		assert.Equal(t, "retrieve_knowledge", g[nodeID].Next(session))
	}
}

func TestWeekProgressionFollowsPeriod(t *testing.T) {
	g := NewRootGraph(noopRetrieve)

	session := store.NewSession("s1", "week1_chat")
	session.CurrentPeriod = 1
	assert.Equal(t, "week1_chat", g["week1_chat"].Next(session))

	session.CurrentPeriod = 2
	assert.Equal(t, "week2_chat", g["week1_chat"].Next(session))

	// The final week never advances past itself.
	session.CurrentPeriod = 13
	assert.Equal(t, "week12_chat", g["week12_chat"].Next(session))
}

func TestWeekNodesDeclarePeriodClosedOutput(t *testing.T) {
	g := NewRootGraph(noopRetrieve)

	for week := 1; week <= 12; week++ {
		node := g[fmt.Sprintf("week%d_chat", week)]
		require.NotNil(t, node)

		field, ok := node.outputField("period_closed")
		require.True(t, ok, "week %d missing period_closed output", week)
		assert.Equal(t, KindBool, field.Kind)
	}
}
