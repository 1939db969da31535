package catalog

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind tags how a subject is evaluated. It is informational only: averages
// are computed from the shape of Inputs, never from Kind.
type Kind string

const (
	KindDSExam        Kind = "DS_EXAM"
	KindDSExamTP      Kind = "DS_EXAM_TP"
	KindExamTP        Kind = "EXAM_TP"
	KindContinuous3   Kind = "CONTINUOUS_3"
	KindContinuous2   Kind = "CONTINUOUS_2"
	KindDSExamTPMixed Kind = "DS_EXAM_TP_MIXED"
)

// Subject is one course within a semester.
type Subject struct {
	ID     string   `yaml:"id,omitempty" json:"id"`
	Name   string   `yaml:"name" json:"name"`
	Coef   float64  `yaml:"coef" json:"coef"`
	Kind   Kind     `yaml:"kind" json:"kind"`
	Inputs []string `yaml:"inputs" json:"inputs"`
}

// Clone returns a copy of s that shares no memory with it.
func (s Subject) Clone() Subject {
	s.Inputs = slices.Clone(s.Inputs)
	if s.Inputs == nil {
		s.Inputs = []string{}
	}
	return s
}

// MaxCoef is the largest coefficient a subject may carry.
const MaxCoef = 1000

// SetCoef replaces the coefficient. NaN, negative values and values above
// MaxCoef are rejected and leave the current coefficient in place.
func (s *Subject) SetCoef(v float64) bool {
	if math.IsNaN(v) || v < 0 || v > MaxCoef {
		return false
	}
	s.Coef = v
	return true
}

// SetCoefficient parses raw as a decimal number and applies it with SetCoef.
func (s *Subject) SetCoefficient(raw string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return false
	}
	return s.SetCoef(v)
}

// AddInput appends label (trimmed) unless it is blank or already present.
// Matching is exact and case-sensitive.
func (s *Subject) AddInput(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" || s.HasInput(label) {
		return false
	}
	s.Inputs = append(s.Inputs, label)
	return true
}

// RemoveInput drops the first input equal to label. Scores already entered
// for it are left where they are and simply stop being read.
func (s *Subject) RemoveInput(label string) bool {
	i := slices.Index(s.Inputs, label)
	if i < 0 {
		return false
	}
	s.Inputs = slices.Delete(slices.Clone(s.Inputs), i, i+1)
	return true
}

// HasInput reports whether label is one of the subject's inputs.
func (s Subject) HasInput(label string) bool {
	return slices.Contains(s.Inputs, label)
}

// Semester groups the subjects taught in one semester of a year.
type Semester struct {
	ID       string    `yaml:"semester" json:"semester"`
	Subjects []Subject `yaml:"subjects" json:"subjects"`
}

// Year groups the semesters of one study year.
type Year struct {
	ID        string     `yaml:"year" json:"year"`
	Semesters []Semester `yaml:"semesters" json:"semesters"`
}

// Program is a degree program (e.g., LTIC) and its years.
type Program struct {
	ID    string `yaml:"program" json:"program"`
	Years []Year `yaml:"years" json:"years"`
}
