package compiler

import "fmt"

// Validation error codes (E200-E299). A document with any of these does
// not compile cleanly.
const (
	ErrEmptyID            = "E200" // rule, mission or achievement id is empty
	ErrDuplicateID        = "E201" // id repeated within one section
	ErrEmptyEventType     = "E202" // rule has no event type
	ErrInvalidDuration    = "E203" // duration string does not parse or is not positive
	ErrMissionNoGoal      = "E204" // mission has neither goal nor objectives
	ErrInvalidMultiplier  = "E205" // negative multiplier
	ErrNegativeTarget     = "E206" // goal or objective target below zero
	ErrEmptyEffectName    = "E207" // effect without a name
	ErrEmptyPredicateName = "E208" // custom condition or event goal without a predicate
)

// Warning codes (W200-W299). Warned items still compile; unknown kinds
// become variants that never hold.
const (
	WarnUnknownCondition   = "W201"
	WarnUnknownGoal        = "W202"
	WarnUnknownObjective   = "W203"
	WarnUnknownOperator    = "W204"
	WarnUnknownStreak      = "W205"
	WarnUnknownAchievement = "W206" // unknown achievement condition kind
	WarnUnknownRarity      = "W207"
	WarnUnknownDifficulty  = "W208"
	WarnGoalIgnored        = "W209" // mission declares both goal and objectives
)

// ValidationError describes one problem found while compiling a document.
// The same shape carries warnings.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// collector accumulates errors and warnings without failing fast.
type collector struct {
	errs  []ValidationError
	warns []ValidationError
}

func (c *collector) errorf(field, code, format string, args ...any) {
	c.errs = append(c.errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) warnf(field, code, format string, args ...any) {
	c.warns = append(c.warns, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}
