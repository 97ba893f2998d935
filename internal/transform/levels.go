package transform

import (
	"fmt"
	"regexp"
	"strings"
)

// BlankLevel labels titles that match no rule.
const BlankLevel = "Blank Level"

// LevelRule maps a job title pattern to a job mapping level.
type LevelRule struct {
	Level string
	Match *regexp.Regexp
}

// NewLevelRule compiles the alternatives in patterns into one case-sensitive pattern.
func NewLevelRule(level string, patterns ...string) (LevelRule, error) {
	if level == "" {
		return LevelRule{}, fmt.Errorf("level rule: empty level")
	}
	if len(patterns) == 0 {
		return LevelRule{}, fmt.Errorf("level rule %q: no patterns", level)
	}
	re, err := regexp.Compile(strings.Join(patterns, "|"))
	if err != nil {
		return LevelRule{}, fmt.Errorf("level rule %q: %w", level, err)
	}
	return LevelRule{Level: level, Match: re}, nil
}

func mustLevel(level string, patterns ...string) LevelRule {
	r, err := NewLevelRule(level, patterns...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultLevelRules is the rule table used when none is configured. Rules
// are tried in order and the first match wins, so broad patterns listed
// early (Analyst, Manager, VP) shadow the senior variants after them.
func DefaultLevelRules() []LevelRule {
	return []LevelRule{
		mustLevel("Analyst", "Analyst"),
		mustLevel("Senior Analyst", "Senior Analyst"),
		mustLevel("Account Executive", "Account Executive"),
		mustLevel("Assistant Manager", "Asst Mgr", "Assistant Manager", "Assistant  Manager"),
		mustLevel("Manager", "Manager", "Mgr"),
		mustLevel("Senior Manager", "Sr. Mgr", "Sr Mgr", "Senior Manager", "Sr. Manager"),
		mustLevel("Director", "Dir", "Director"),
		mustLevel("Assistant Vice President", "AVP", "Assistant Vice President", "Asst. Vice President"),
		mustLevel("Vice President", "VP", "Vice President"),
		mustLevel("Senior Vice President", "SVP", "Senior Vice President"),
	}
}

// InferLevel returns the level of the first rule matching title.
func InferLevel(title any, rules []LevelRule) string {
	s, ok := title.(string)
	if !ok {
		return BlankLevel
	}
	for _, r := range rules {
		if r.Match != nil && r.Match.MatchString(s) {
			return r.Level
		}
	}
	return BlankLevel
}
