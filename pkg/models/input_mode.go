package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/pkg/errors"
)

// InputMode describes how the learner produced an answer.
type InputMode int

const (
	Recognition InputMode = iota + 1 // Picked from offered choices.
	Production                       // Typed unaided.
	Voice                            // Spoken unaided.
)

var inputModeNames = [...]string{Recognition: "recognition", Production: "production", Voice: "voice"}

// Valid reports whether m is a defined mode.
func (m InputMode) Valid() bool {
	return m >= Recognition && m <= Voice
}

// IsProduction reports whether the learner had to generate the answer themselves.
func (m InputMode) IsProduction() bool {
	switch m {
	case Production, Voice:
		return true
	case Recognition:
		return false
	}
	return false
}

// String returns the lowercase name of the mode, or "InputMode(n)" for invalid values.
func (m InputMode) String() string {
	if m.Valid() {
		return inputModeNames[m]
	}
	return fmt.Sprintf("InputMode(%d)", int(m))
}

// ParseInputMode converts a name produced by String back into an InputMode.
func ParseInputMode(s string) (InputMode, error) {
	for i, name := range inputModeNames {
		if name != "" && name == s {
			return InputMode(i), nil
		}
	}
	return 0, errors.Errorf("models: invalid input mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m InputMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, errors.Errorf("models: invalid input mode: %d", int(m))
	}
	return []byte(inputModeNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *InputMode) UnmarshalText(text []byte) error {
	v, err := ParseInputMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Value implements driver.Valuer.
func (m InputMode) Value() (driver.Value, error) {
	text, err := m.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}

// Scan implements sql.Scanner.
func (m *InputMode) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return m.UnmarshalText([]byte(v))
	case []byte:
		return m.UnmarshalText(v)
	}
	return errors.Errorf("models: cannot scan %T into InputMode", src)
}

// ActivityKind is the exercise type that produced an attempt.
type ActivityKind int

const (
	Flashcard ActivityKind = iota + 1
	MultipleChoice
	Typing
	Dictation
	Speaking
)

var activityNames = [...]string{
	Flashcard:      "flashcard",
	MultipleChoice: "multiple_choice",
	Typing:         "typing",
	Dictation:      "dictation",
	Speaking:       "speaking",
}

// InputMode returns the input mode an activity requires.
func (a ActivityKind) InputMode() InputMode {
	switch a {
	case Flashcard, MultipleChoice:
		return Recognition
	case Typing, Dictation:
		return Production
	case Speaking:
		return Voice
	}
	return Recognition
}

func (a ActivityKind) String() string {
	if a >= Flashcard && a <= Speaking {
		return activityNames[a]
	}
	return fmt.Sprintf("ActivityKind(%d)", int(a))
}
