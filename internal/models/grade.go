package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Grade is the learner's recall assessment of a card
type Grade int

const (
	GradeAgain Grade = 0
	GradeHard  Grade = 1
	GradeGood  Grade = 2
	GradeEasy  Grade = 3
)

// Valid reports whether the grade belongs to the closed set 0..3
func (g Grade) Valid() bool {
	return g >= GradeAgain && g <= GradeEasy
}

func (g Grade) String() string {
	switch g {
	case GradeAgain:
		return "again"
	case GradeHard:
		return "hard"
	case GradeGood:
		return "good"
	case GradeEasy:
		return "easy"
	default:
		return "grade(" + strconv.Itoa(int(g)) + ")"
	}
}

// ParseGrade accepts either a digit ("0".."3") or a grade name ("again", "hard", "good", "easy")
func ParseGrade(value string) (Grade, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(value); err == nil {
		g := Grade(n)
		if !g.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidGrade, n)
		}
		return g, nil
	}
	for g := GradeAgain; g <= GradeEasy; g++ {
		if g.String() == value {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, value)
}
