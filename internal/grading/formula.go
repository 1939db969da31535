package grading

import (
	"fmt"
	"strings"
)

// examLabel is the input label, compared case-insensitively, that marks the
// final exam of a subject.
const examLabel = "examen"

// FormulaKind selects how a subject's inputs are combined.
type FormulaKind int

const (
	// SimpleAverage is the arithmetic mean of every input.
	SimpleAverage FormulaKind = iota
	// ExamBlend weighs the exam against the mean of the other inputs.
	ExamBlend
)

func (k FormulaKind) String() string {
	switch k {
	case SimpleAverage:
		return "simple_average"
	case ExamBlend:
		return "exam_blend"
	default:
		return "unknown"
	}
}

// MarshalText lets the kind appear by name in JSON.
func (k FormulaKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind written by MarshalText.
func (k *FormulaKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "simple_average":
		*k = SimpleAverage
	case "exam_blend":
		*k = ExamBlend
	default:
		return fmt.Errorf("unknown formula kind %q", b)
	}
	return nil
}

// Formula is the result of classifying a subject's inputs. Exam is the index
// of the exam input when Kind is ExamBlend, -1 otherwise.
type Formula struct {
	Kind FormulaKind `json:"kind"`
	Exam int         `json:"exam"`
}

// Classify picks the formula for inputs. The first label equal to "examen"
// ignoring case is the exam; later look-alikes count as ordinary inputs.
func Classify(inputs []string) Formula {
	for i, label := range inputs {
		if strings.EqualFold(label, examLabel) {
			return Formula{Kind: ExamBlend, Exam: i}
		}
	}
	return Formula{Kind: SimpleAverage, Exam: -1}
}
