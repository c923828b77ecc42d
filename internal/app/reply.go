package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gymos/internal/domain"
)

// Parse stages reported by ReplyParseError.
const (
	StageDirect    = "direct"
	StageSubstring = "substring"
	StageValidate  = "validate"
)

var errNoObject = errors.New("no JSON object in reply")

// ReplyParseError reports why a completion reply could not be decoded. It
// matches domain.ErrAIMalformed.
type ReplyParseError struct {
	Stage string
	Err   error
}

func (e *ReplyParseError) Error() string {
	return fmt.Sprintf("parse reply (%s): %v", e.Stage, e.Err)
}

func (e *ReplyParseError) Unwrap() []error { return []error{domain.ErrAIMalformed, e.Err} }

// decodeReply parses text as T, first directly and then as the substring
// between the first '{' and the last '}'.
func decodeReply[T any](text string) (T, error) {
	var direct T
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &direct); err == nil {
		return direct, nil
	}

	var zero T
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return zero, &ReplyParseError{Stage: StageSubstring, Err: errNoObject}
	}
	var inner T
	if err := json.Unmarshal([]byte(text[start:end+1]), &inner); err != nil {
		return zero, &ReplyParseError{Stage: StageSubstring, Err: err}
	}
	return inner, nil
}

// quantity decodes a JSON number or string to its leading integer. Anything
// unparseable decodes to 0.
type quantity int

func (q *quantity) UnmarshalJSON(b []byte) error {
	*q = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	}
	*q = quantity(leadingInt(s))
	return nil
}

// leadingInt parses an optional sign and the digits that follow, ignoring
// leading whitespace and everything after the digits.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0
	}
	n, err := strconv.Atoi(s[:j])
	if err != nil {
		return 0
	}
	return n
}

// looseText decodes a JSON string, or a list of strings joined by ", ".
type looseText string

func (t *looseText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = looseText(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = looseText(strings.Join(list, ", "))
		return nil
	}
	*t = looseText(strings.Trim(string(b), `"`))
	return nil
}

type mealReply struct {
	Name     looseText `json:"name"`
	Items    looseText `json:"items"`
	Calories quantity  `json:"calories"`
	Protein  quantity  `json:"protein"`
}

type planReply struct {
	Meals       []mealReply `json:"meals"`
	TrainerNote looseText   `json:"trainer_note"`
	CoachNote   looseText   `json:"coach_note"`
}

// PlanReply is the decoded structure of a plan completion.
type PlanReply struct {
	Meals []domain.Meal
	Note  string
}

// ParsePlanReply decodes a plan completion, tolerating conversational text
// around the JSON payload. Failures are *ReplyParseError.
func ParsePlanReply(reply string) (PlanReply, error) {
	raw, err := decodeReply[planReply](reply)
	if err != nil {
		return PlanReply{}, err
	}
	if len(raw.Meals) == 0 {
		return PlanReply{}, &ReplyParseError{Stage: StageValidate, Err: errors.New("reply has no meals")}
	}

	out := PlanReply{Meals: make([]domain.Meal, 0, len(raw.Meals)), Note: string(raw.TrainerNote)}
	if out.Note == "" {
		out.Note = string(raw.CoachNote)
	}
	for _, m := range raw.Meals {
		out.Meals = append(out.Meals, domain.Meal{
			Name:     strings.TrimSpace(string(m.Name)),
			Items:    strings.TrimSpace(string(m.Items)),
			Calories: int(m.Calories),
			Protein:  int(m.Protein),
		})
	}
	return out, nil
}
