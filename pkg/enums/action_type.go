package enums

import "fmt"

// ActionType is the billable category recorded per usage event.
type ActionType string

const (
	ActionTypeGeneration ActionType = "generation"
	ActionTypeEdit       ActionType = "edit"
)

var validActionTypes = []ActionType{
	ActionTypeGeneration,
	ActionTypeEdit,
}

// String implements fmt.Stringer.
func (a ActionType) String() string {
	return string(a)
}

// IsValid reports whether the value is known.
func (a ActionType) IsValid() bool {
	for _, candidate := range validActionTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActionType converts raw input into an ActionType.
func ParseActionType(value string) (ActionType, error) {
	for _, candidate := range validActionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid action type %q", value)
}
