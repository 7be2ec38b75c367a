package intent

import (
	"fmt"
	"strings"

	"github.com/kalambet/fitai/internal/engine"
)

const systemPromptTemplate = `You extract fitness profile updates from a single user message. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Rules:
- Only report values the user states about themselves right now. Questions, hypotheticals and other people do not count.
- weight_kg, height_cm and age are absolute values. Convert pounds to kilograms and feet/inches to centimetres.
- When the user reports a weight change instead of a weight ("I've lost 3 kg"), set weight_change_kg to the signed change and leave weight_kg empty.
- activity_level must be one of: Sedentary, Moderate, Active.
- fitness_goal must be one of: Weight Loss, Muscle Gain, Endurance.
- dietary_preference must be one of: Vegan, Vegetarian, Non-vegetarian.
- Omit or null every field the message does not mention.`

// BuildPrompt constructs the chat messages for update extraction.
func BuildPrompt(message, profileSummary string) []engine.Message {
	var sb strings.Builder
	sb.WriteString(systemPromptTemplate)

	if profileSummary != "" {
		fmt.Fprintf(&sb, "\n\n[Current Profile]\n%s", profileSummary)
	}

	return []engine.Message{
		{Role: engine.RoleSystem, Content: sb.String()},
		{Role: engine.RoleUser, Content: message},
	}
}

// updateSchema returns the JSON schema for structured extraction output.
func updateSchema() *engine.Schema {
	return &engine.Schema{
		Type: "object",
		Properties: map[string]engine.SchemaProperty{
			"weight_kg":          {Type: "number", Description: "New body weight in kilograms"},
			"weight_change_kg":   {Type: "number", Description: "Signed weight change in kilograms"},
			"height_cm":          {Type: "number", Description: "Height in centimetres"},
			"age":                {Type: "integer", Description: "Age in years"},
			"activity_level":     {Type: "string", Description: "Sedentary, Moderate or Active"},
			"fitness_goal":       {Type: "string", Description: "Weight Loss, Muscle Gain or Endurance"},
			"dietary_preference": {Type: "string", Description: "Vegan, Vegetarian or Non-vegetarian"},
		},
	}
}
