package intent

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kalambet/fitai/internal/profile"
)

const (
	number = `(\d+(?:\.\d+)?)`
	kg     = `\s*(?:kg|kgs|kilos|kilograms)\b`
	cm     = `\s*(?:cm|centimeters|centimetres)\b`
)

type template struct {
	re *regexp.Regexp
	// sign is 0 for absolute values, -1 or +1 for deltas.
	sign int
}

func absolute(expr string) template { return template{re: regexp.MustCompile(expr)} }
func delta(expr string, sign int) template {
	return template{re: regexp.MustCompile(expr), sign: sign}
}

// Templates are tried in order per field; the first match wins.
var (
	weightTemplates = []template{
		absolute(`my weight is (?:now |currently )?` + number + kg),
		absolute(`i (?:now |currently )?weigh ` + number + kg),
		delta(`i(?:'ve| have) lost ` + number + kg, -1),
		delta(`i(?:'ve| have) gained ` + number + kg, +1),
		absolute(`my weight (?:has )?changed to ` + number + kg),
		absolute(`update my weight to ` + number + kg),
		absolute(`i am (?:now |currently )?` + number + kg),
	}

	heightTemplates = []template{
		absolute(`my height is (?:now |currently )?` + number + cm),
		absolute(`i am (?:now )?` + number + cm + ` tall`),
		absolute(`update my height to ` + number + cm),
	}

	ageTemplates = []template{
		absolute(`my age is (?:now |currently )?(\d+)`),
		absolute(`i am (?:now )?(\d+) years old`),
		absolute(`update my age to (\d+)`),
		absolute(`i turned (\d+)`),
	}

	activityTemplates = []template{
		absolute(`my activity level is (?:now |currently )?(\w+)`),
		absolute(`i am (?:now )?(\w+)ly active`),
		absolute(`update my activity level to (\w+)`),
	}
)

type keywordRule struct {
	value    string
	keywords []string
}

// Keyword rules are checked in order and the first rule with any keyword
// present wins. The "non veg" spellings are checked before "vegetarian", and
// the broad "meat" keywords only after both.
var (
	goalRules = []keywordRule{
		{string(profile.WeightLoss), []string{"weight loss", "lose weight", "losing weight"}},
		{string(profile.MuscleGain), []string{"muscle gain", "build muscle", "gaining muscle"}},
		{string(profile.Endurance), []string{"endurance", "stamina", "cardiovascular"}},
	}

	dietRules = []keywordRule{
		{string(profile.Vegan), []string{"vegan", "plant-based"}},
		{string(profile.NonVegetarian), []string{"non-vegetarian", "non vegetarian", "nonvegetarian", "non-veg", "non veg", "nonveg"}},
		{string(profile.Vegetarian), []string{"vegetarian"}},
		{string(profile.NonVegetarian), []string{"meat", "omnivore"}},
	}
)

// PatternExtractor recognizes a fixed set of English phrasings. It is
// deterministic and needs no model.
type PatternExtractor struct{}

// NewPatternExtractor returns a PatternExtractor.
func NewPatternExtractor() *PatternExtractor { return &PatternExtractor{} }

func (PatternExtractor) Extract(_ context.Context, message string) Updates {
	text := normalize(message)
	updates := make(Updates)

	if c, ok := matchFirst(text, weightTemplates); ok {
		updates[profile.FieldWeight] = c
	}
	if c, ok := matchFirst(text, heightTemplates); ok {
		updates[profile.FieldHeight] = c
	}
	if c, ok := matchFirst(text, ageTemplates); ok {
		updates[profile.FieldAge] = c
	}
	if c, ok := matchFirst(text, activityTemplates); ok {
		c.Value = capitalize(c.Value)
		if inDomain(c.Value, profile.ActivityLevels) {
			updates[profile.FieldActivity] = c
		}
	}
	if v, ok := matchKeywords(text, goalRules); ok {
		updates[profile.FieldGoal] = Candidate{Value: v}
	}
	if v, ok := matchKeywords(text, dietRules); ok {
		updates[profile.FieldDiet] = Candidate{Value: v}
	}
	return updates
}

func matchFirst(text string, templates []template) (Candidate, bool) {
	for _, t := range templates {
		m := t.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		switch t.sign {
		case -1:
			return Candidate{Value: "-" + m[1], Relative: true}, true
		case +1:
			return Candidate{Value: m[1], Relative: true}, true
		}
		return Candidate{Value: m[1]}, true
	}
	return Candidate{}, false
}

func matchKeywords(text string, rules []keywordRule) (string, bool) {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.value, true
			}
		}
	}
	return "", false
}

// normalize lowercases and folds typographic apostrophes so "I’ve" matches.
func normalize(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func inDomain[T ~string](v string, domain []T) bool {
	for _, d := range domain {
		if string(d) == v {
			return true
		}
	}
	return false
}
