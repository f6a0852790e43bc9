package graph

import (
	"fmt"
	"strings"
)

func introInstructions(field string, topic string, nextID string) string {
	return fmt.Sprintf(`IMPORTANT: Respond in JSON format with EXACTLY this structure:
{
  "reply": "Motivate the user and ask about %s.",
  "%s": {"...": "structured details extracted from the answer"},
  "next": "%s"
}
CRITICAL RULES:
1. The reply MUST end with one clear question about %s.
2. Extract any details the user already gave into %s.
3. Set next to '%s'.`, topic, field, nextID, topic, field, nextID)
}

func skillsInstructions(fields []string, selfID string, nextID string) string {
	var fieldLines strings.Builder
	for _, f := range fields {
		fieldLines.WriteString(fmt.Sprintf("  %q: [\"...\"],\n", f))
	}
	return fmt.Sprintf(`IMPORTANT: Respond in JSON format with EXACTLY this structure:
{
  "reply": "Your response to the user",
%s  "next": "%s | %s"
}
CRITICAL RULES:
1. Extract the listed fields from the user's answer; omit a field rather than inventing values.
2. If nothing usable was provided, politely ask again and set next to '%s'.
3. Once at least one field has content, acknowledge and set next to '%s'.`,
		fieldLines.String(), selfID, nextID, selfID, nextID)
}

func obstaclesInstructions(selfID string) string {
	return fmt.Sprintf(`IMPORTANT: Respond in JSON format with EXACTLY this structure:
{
  "reply": "Thank the user for sharing and explain that a personalized plan comes next. If unclear, politely ask again.",
  "goals": ["Goal 1", "Goal 2"],
  "next": "%s | retrieve_knowledge"
}
CRITICAL RULES:
1. Turn the user's main obstacles into 2-3 positive, actionable goals, not a description of the problem.
2. If goals are missing or unclear, ask again and set next to '%s'.
3. If goals are provided, acknowledge and set next to 'retrieve_knowledge'.`, selfID, selfID)
}

const planInstructions = `IMPORTANT: Your entire response MUST be valid JSON. No explanations, comments, or extra text. All fields are required.
Strictly follow this structure:
{
  "reply": "Briefly reflect on the onboarding chat, thank the user, and tell them their plan is ready and the mentoring chat is now open.",
  "plan": {
    "week_1_topic": "...",
    "week_2_topic": "...",
    "week_3_topic": "...",
    "week_4_topic": "...",
    "week_5_topic": "...",
    "week_6_topic": "...",
    "week_7_topic": "...",
    "week_8_topic": "...",
    "week_9_topic": "...",
    "week_10_topic": "...",
    "week_11_topic": "...",
    "week_12_topic": "..."
  },
  "onboarding_chat_summary": "Summary of the onboarding chat, max 3 sentences, no line breaks.",
  "next": "week1_chat"
}
CRITICAL RULES:
1. Only output the JSON object, nothing else.
2. All 12 week topics must be present and non-empty.
3. reply and onboarding_chat_summary must be short and without line breaks.
4. next must always be "week1_chat".`

func weekInstructions(week int) string {
	self := weekNodeID(week)
	next := self
	if week < totalWeeks {
		next = weekNodeID(week + 1)
	}
	return fmt.Sprintf(`IMPORTANT: You are a real human mentor. Be natural, conversational, and supportive. Vary your questions; sometimes ask open or reflective ones. Your entire response MUST be valid JSON, nothing else.
Strictly follow this structure:
{
  "reply": "Short, natural, supportive. No line breaks.",
  "period_closed": false,
  "next": "%s"
}
CRITICAL RULES:
1. Only output the JSON object, nothing else.
2. Set period_closed to true ONLY when the user explicitly confirms they are done with this week's topic and ready to move on; otherwise false.
3. When period_closed is true, set next to "%s"; otherwise keep next as "%s".
4. reply must be short, human, and without line breaks.`, self, next, self)
}
