package graph

import (
	"fmt"

	"ai-mentor-be/pkg/store"
)

// EntryNodeID is where every new session starts.
const EntryNodeID = "collect_basic_info"

const totalWeeks = 12

// NewRootGraph builds the mentoring conversation graph. The retrieve
// executor is injected so the graph definition stays free of index and
// embedding concerns.
func NewRootGraph(retrieve ExecutorFunc) Graph {
	g := Graph{}

	g["collect_basic_info"] = &Node{
		ID:           "collect_basic_info",
		SystemPrompt: "You are collecting the user's basic personal data through natural conversation.",
		Instructions: `IMPORTANT: Your ONLY task is to extract user_name and user_age.
Respond in JSON format with EXACTLY this structure:
{
  "reply": "Your response to the user",
  "user_name": "extracted name, or null if not provided",
  "user_age": "extracted age as a number, 'unknown' if the user refuses, or null if not provided",
  "next": "collect_basic_info | classify_category"
}
CRITICAL RULES:
1. ONLY extract user_name and user_age, nothing else.
2. If user_name is missing, politely ask ONLY for the name and set next to 'collect_basic_info'.
3. If user_name is present and user_age is missing, politely ask ONLY for the age and set next to 'collect_basic_info'.
4. Once both are known (or age is 'unknown'), thank the user and ask whether they currently have a main career goal, then set next to 'classify_category'.`,
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "user_name", Kind: KindString},
			{Name: "user_age", Kind: KindAny},
			{Name: "next", Kind: KindString},
		},
		Next: nextCollectBasicInfo,
	}

	g["classify_category"] = &Node{
		ID:           "classify_category",
		SystemPrompt: "Analyze the user's work situation and goals to determine the appropriate category.",
		Instructions: `IMPORTANT: Respond in JSON format with EXACTLY this structure:
{
  "reply": "Your response to the user. If goal_type is clear, immediately ask the first question of the matching track.",
  "goal_type": "career_improve | career_change | career_find | no_goal",
  "next": "improve_intro | change_intro | find_intro | lost_intro | classify_category"
}
CRITICAL RULES:
1. Set goal_type from the user's answer using only the allowed values.
2. If the answer is unclear, politely clarify and set next to 'classify_category'.
3. If goal_type is clear, the reply MUST include a transition into the track's first question.`,
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "goal_type", Kind: KindString},
			{Name: "next", Kind: KindString},
		},
		Next: nextClassifyCategory,
	}

	g["improve_intro"] = &Node{
		ID:           "improve_intro",
		SystemPrompt: "You are introducing the career improvement section. Ask about the user's current job circumstances.",
		Instructions: introInstructions("job_circumstances", "their current job situation", "improve_skills"),
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "job_circumstances", Kind: KindObject},
			{Name: "next", Kind: KindString},
		},
		Next: func(s *store.Session) string { return "improve_skills" },
	}

	g["improve_skills"] = &Node{
		ID:           "improve_skills",
		SystemPrompt: "Understand the user's broader strengths and interests: skills they possess, interests they enjoy, and activities they do in free time.",
		Instructions: skillsInstructions([]string{"skills", "interests", "activities", "exciting_topics"}, "improve_skills", "improve_obstacles"),
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "skills", Kind: KindList},
			{Name: "interests", Kind: KindList},
			{Name: "activities", Kind: KindList},
			{Name: "exciting_topics", Kind: KindList},
			{Name: "next", Kind: KindString},
		},
		Next: func(s *store.Session) string {
			if hasAny(s, "skills", "interests") {
				return "improve_obstacles"
			}
			return "improve_skills"
		},
	}

	g["improve_obstacles"] = &Node{
		ID:           "improve_obstacles",
		SystemPrompt: "You are helping the user turn their main career obstacles into positive, actionable goals. Capture self-perceived negative qualities neutrally.",
		Instructions: `IMPORTANT: Respond in JSON format with EXACTLY this structure:
{
  "reply": "Thank the user for sharing obstacles and explain that a personalized plan comes next. If obstacles are unclear, politely ask again.",
  "goals": ["Goal 1", "Goal 2"],
  "negative_qualities": ["..."],
  "next": "improve_obstacles | retrieve_knowledge"
}
CRITICAL RULES:
1. Turn the user's main obstacles into 2-3 positive, actionable goals.
2. If goals are missing or unclear, ask again and set next to 'improve_obstacles'.
3. If goals are provided, acknowledge and set next to 'retrieve_knowledge'.`,
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "goals", Kind: KindList},
			{Name: "negative_qualities", Kind: KindList},
			{Name: "next", Kind: KindString},
		},
		Next: obstaclesNext("improve_obstacles"),
	}

	g["change_intro"] = &Node{
		ID:           "change_intro",
		SystemPrompt: "You are introducing the career change section. Motivate the user and explain that a few questions will help clarify their career change goals.",
		Instructions: introInstructions("career_change_circumstances", "what is pushing them toward a career change", "change_skills"),
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "career_change_circumstances", Kind: KindObject},
			{Name: "next", Kind: KindString},
		},
		Next: func(s *store.Session) string {
			if hasAny(s, "career_change_circumstances") {
				return "change_skills"
			}
			return "change_intro"
		},
	}

	g["change_skills"] = &Node{
		ID:           "change_skills",
		SystemPrompt: "You are helping the user clarify their skills and interests for a career change. If the answer is unclear or missing, politely ask again.",
		Instructions: skillsInstructions([]string{"skills", "interests", "activities", "exciting_topics"}, "change_skills", "change_obstacles"),
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "skills", Kind: KindList},
			{Name: "interests", Kind: KindList},
			{Name: "activities", Kind: KindList},
			{Name: "exciting_topics", Kind: KindList},
			{Name: "next", Kind: KindString},
		},
		Next: func(s *store.Session) string {
			if hasAny(s, "skills", "interests", "activities", "exciting_topics") {
				return "change_obstacles"
			}
			return "change_skills"
		},
	}

	g["change_obstacles"] = &Node{
		ID:           "change_obstacles",
		SystemPrompt: "You are helping the user turn what blocks their career change into positive, actionable goals. If the answer is unclear or missing, politely ask again.",
		Instructions: obstaclesInstructions("change_obstacles"),
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "goals", Kind: KindList},
			{Name: "next", Kind: KindString},
		},
		Next: obstaclesNext("change_obstacles"),
	}

	g["find_intro"] = &Node{
		ID:           "find_intro",
		SystemPrompt: "You are introducing the path-finding section for people without jobs. Motivate the user and explain that a few questions will help understand their background.",
		Instructions: introInstructions("background_circumstances", "their background and current situation", "find_skills"),
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "background_circumstances", Kind: KindObject},
			{Name: "next", Kind: KindString},
		},
		Next: func(s *store.Session) string {
			if hasAny(s, "background_circumstances") {
				return "find_skills"
			}
			return "find_intro"
		},
	}

	g["find_skills"] = &Node{
		ID:           "find_skills",
		SystemPrompt: "You are helping the user discover their passions and what truly excites them. If the answer is unclear or missing, politely ask again.",
		Instructions: skillsInstructions([]string{"passions", "exciting_topics", "content_consumption"}, "find_skills", "find_obstacles"),
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "passions", Kind: KindList},
			{Name: "exciting_topics", Kind: KindList},
			{Name: "content_consumption", Kind: KindList},
			{Name: "next", Kind: KindString},
		},
		Next: func(s *store.Session) string {
			if hasAny(s, "passions", "exciting_topics", "content_consumption") {
				return "find_obstacles"
			}
			return "find_skills"
		},
	}

	g["find_obstacles"] = &Node{
		ID:           "find_obstacles",
		SystemPrompt: "You are helping the user turn their main self-growth obstacles into positive, actionable goals. If the answer is unclear or missing, politely ask again.",
		Instructions: obstaclesInstructions("find_obstacles"),
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "goals", Kind: KindList},
			{Name: "next", Kind: KindString},
		},
		Next: obstaclesNext("find_obstacles"),
	}

	g["lost_intro"] = &Node{
		ID:           "lost_intro",
		SystemPrompt: "You are introducing the no-goal section. Be supportive, explain that it's okay to not have a specific goal right now, and that you'll help them explore possibilities.",
		Instructions: `IMPORTANT: Respond in JSON format with EXACTLY this structure:
{
  "reply": "Be supportive and immediately ask why the user currently has no specific goal.",
  "next": "lost_skills"
}
CRITICAL RULES:
1. The reply MUST end with a clear question about the main reason they have no goal right now.
2. Set next to 'lost_skills'.`,
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "next", Kind: KindString},
		},
		Next: func(s *store.Session) string { return "lost_skills" },
	}

	g["lost_skills"] = &Node{
		ID:           "lost_skills",
		SystemPrompt: "You are helping the user explore why they don't have a specific goal and what might be meaningful for them. If the answer is unclear or missing, politely ask again.",
		Instructions: `IMPORTANT: Respond in JSON format with EXACTLY this structure:
{
  "reply": "Thank the user for sharing. If the reason is unclear, politely ask again.",
  "lost_skills": "the extracted reason as a string, or null if not provided",
  "next": "lost_skills | retrieve_knowledge"
}
CRITICAL RULES:
1. ONLY extract the user's reason for not having a specific goal.
2. If the reason is missing or unclear, ask again and set next to 'lost_skills'.
3. If the reason is provided, acknowledge and set next to 'retrieve_knowledge'.`,
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "lost_skills", Kind: KindString},
			{Name: "next", Kind: KindString},
		},
		Next: func(s *store.Session) string {
			if hasAny(s, "lost_skills") {
				return "retrieve_knowledge"
			}
			return "lost_skills"
		},
	}

	g["retrieve_knowledge"] = &Node{
		ID:           "retrieve_knowledge",
		SystemPrompt: "Retrieve relevant coaching knowledge from the knowledge base.",
		Outputs: []OutputField{
			{Name: "retrieved_chunks", Kind: KindList},
			{Name: "next", Kind: KindString},
		},
		Executor: retrieve,
		Next:     func(s *store.Session) string { return "generate_plan" },
	}

	g["generate_plan"] = &Node{
		ID: "generate_plan",
		SystemPrompt: "Based on the user's goals, obstacles, and interests, generate a 12-week personalized mentoring plan. " +
			"Each week needs a unique topic relevant to the user's context. Be warm, supportive, and clear.",
		Instructions: planInstructions,
		Outputs: []OutputField{
			{Name: "reply", Kind: KindString, Required: true},
			{Name: "plan", Kind: KindObject, Required: true},
			{Name: "onboarding_chat_summary", Kind: KindString, Required: true},
			{Name: "next", Kind: KindString},
		},
		Next: func(s *store.Session) string { return "week1_chat" },
	}

	for week := 1; week <= totalWeeks; week++ {
		id := weekNodeID(week)
		g[id] = &Node{
			ID: id,
			SystemPrompt: fmt.Sprintf(
				"You are the user's mentor for week %d. Use the onboarding summary and the plan's topic for week %d "+
					"to hold a focused, supportive conversation. Encourage the user to reflect and act on this week's topic.", week, week),
			Instructions: weekInstructions(week),
			Outputs: []OutputField{
				{Name: "reply", Kind: KindString, Required: true},
				{Name: "period_closed", Kind: KindBool},
				{Name: "next", Kind: KindString},
			},
			Next: weekNext(week),
		}
	}

	return g
}

func weekNodeID(week int) string {
	return fmt.Sprintf("week%d_chat", week)
}

// weekNext stays in the current week until the period has been closed; the
// close bumps current_period, which is what moves the session forward.
func weekNext(week int) NextFunc {
	return func(s *store.Session) string {
		if s.CurrentPeriod > week && week < totalWeeks {
			return weekNodeID(week + 1)
		}
		return weekNodeID(week)
	}
}

func nextCollectBasicInfo(s *store.Session) string {
	name := s.FieldString("user_name")
	if name == "" || name == "unavailable" || name == "unknown" {
		return "collect_basic_info"
	}
	if age, ok := s.Fields["user_age"]; !ok || age == nil || age == "" {
		return "collect_basic_info"
	}
	return "classify_category"
}

func nextClassifyCategory(s *store.Session) string {
	switch s.FieldString("goal_type") {
	case "career_improve":
		return "improve_intro"
	case "career_change":
		return "change_intro"
	case "career_find":
		return "find_intro"
	case "no_goal":
		return "lost_intro"
	}
	return "classify_category"
}

func obstaclesNext(selfID string) NextFunc {
	return func(s *store.Session) string {
		if hasAny(s, "goals") {
			return "retrieve_knowledge"
		}
		return selfID
	}
}

// hasAny reports whether at least one of the fields holds a usable value:
// non-empty string, non-empty list, or non-empty object.
func hasAny(s *store.Session, names ...string) bool {
	for _, name := range names {
		value, ok := s.Fields[name]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if v != "" && v != "unavailable" {
				return true
			}
		case []any:
			if len(v) > 0 {
				return true
			}
		case []string:
			if len(v) > 0 {
				return true
			}
		case map[string]any:
			if len(v) > 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}
