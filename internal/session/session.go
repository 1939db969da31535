// Package session holds the state of one calculation: the selected program,
// year and semester, the editable copy of their subjects and the typed marks.
package session

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/isimg/moyenne/internal/catalog"
	"github.com/isimg/moyenne/internal/grading"
)

// Level names one step of the catalog hierarchy.
type Level string

const (
	LevelProgram  Level = "program"
	LevelYear     Level = "year"
	LevelSemester Level = "semester"
)

// ErrUnknownLevel is returned by Select for a level other than program, year
// or semester.
var ErrUnknownLevel = errors.New("unknown selection level")

// QuickInputs are the labels offered as one-click additions to a subject.
var QuickInputs = []string{"Examen", "DS", "TP", "DS 2", "Oral"}

// Session is the working state of one user. It is not safe for concurrent
// mutation; Service serializes access.
type Session struct {
	ID        string            `json:"id"`
	Program   string            `json:"program"`
	Year      string            `json:"year"`
	Semester  string            `json:"semester"`
	Subjects  []catalog.Subject `json:"subjects"`
	Marks     grading.Marks     `json:"marks"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// New returns an empty session with a fresh id.
func New() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		Subjects:  []catalog.Subject{},
		Marks:     grading.Marks{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Select changes one level of the selection. Choosing a program clears the
// year and semester, choosing a year clears the semester. Once all three are
// set the semester's subjects are copied from the catalog; any change to the
// selection discards the marks typed so far.
func (s *Session) Select(c *catalog.Catalog, level Level, value string) error {
	switch level {
	case LevelProgram:
		if value != "" && c.Years(value) == nil {
			return fmt.Errorf("program %q: %w", value, catalog.ErrUnknownSelection)
		}
		s.Program, s.Year, s.Semester = value, "", ""
	case LevelYear:
		if s.Program == "" {
			return fmt.Errorf("year selected before program: %w", catalog.ErrUnknownSelection)
		}
		if value != "" && !slices.Contains(c.Years(s.Program), value) {
			return fmt.Errorf("year %q of %s: %w", value, s.Program, catalog.ErrUnknownSelection)
		}
		s.Year, s.Semester = value, ""
	case LevelSemester:
		if s.Year == "" {
			return fmt.Errorf("semester selected before year: %w", catalog.ErrUnknownSelection)
		}
		if value != "" && !slices.Contains(c.Semesters(s.Program, s.Year), value) {
			return fmt.Errorf("semester %q of %s/%s: %w", value, s.Program, s.Year, catalog.ErrUnknownSelection)
		}
		s.Semester = value
	default:
		return fmt.Errorf("level %q: %w", level, ErrUnknownLevel)
	}

	s.Subjects = []catalog.Subject{}
	s.Marks = grading.Marks{}
	if s.Program != "" && s.Year != "" && s.Semester != "" {
		subjects, ok := c.Subjects(s.Program, s.Year, s.Semester)
		if !ok {
			return fmt.Errorf("%s/%s/%s: %w", s.Program, s.Year, s.Semester, catalog.ErrUnknownSelection)
		}
		s.Subjects = subjects
	}
	s.touch()
	return nil
}

// Reset returns the session to its initial state, keeping its id.
func (s *Session) Reset() {
	s.Program, s.Year, s.Semester = "", "", ""
	s.Subjects = []catalog.Subject{}
	s.Marks = grading.Marks{}
	s.touch()
}

// ClearMarks discards every typed score but keeps the subjects as edited.
func (s *Session) ClearMarks() {
	s.Marks = grading.Marks{}
	s.touch()
}

// SetMark validates and stores a score entry. The subject must belong to the
// session and declare label as one of its inputs.
func (s *Session) SetMark(subjectID, label, raw string) bool {
	sub := s.subject(subjectID)
	if sub == nil || !sub.HasInput(label) {
		return false
	}
	if s.Marks == nil {
		s.Marks = grading.Marks{}
	}
	if !s.Marks.Set(subjectID, label, raw) {
		return false
	}
	s.touch()
	return true
}

// SetCoefficient changes the coefficient of one subject.
func (s *Session) SetCoefficient(subjectID, raw string) bool {
	return s.edit(subjectID, func(sub *catalog.Subject) bool { return sub.SetCoefficient(raw) })
}

// AddInput adds an input label to one subject.
func (s *Session) AddInput(subjectID, label string) bool {
	return s.edit(subjectID, func(sub *catalog.Subject) bool { return sub.AddInput(label) })
}

// RemoveInput removes an input label from one subject. Its marks stay in the
// session and come back into play if the label is added again.
func (s *Session) RemoveInput(subjectID, label string) bool {
	return s.edit(subjectID, func(sub *catalog.Subject) bool { return sub.RemoveInput(label) })
}

// Suggestions lists the QuickInputs the subject does not have yet.
func (s *Session) Suggestions(subjectID string) []string {
	sub := s.subject(subjectID)
	if sub == nil {
		return nil
	}
	out := make([]string, 0, len(QuickInputs))
	for _, label := range QuickInputs {
		if !sub.HasInput(label) {
			out = append(out, label)
		}
	}
	return out
}

// Result computes the current averages.
func (s *Session) Result() grading.Result {
	return grading.Compute(s.Subjects, s.Marks)
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	out := *s
	out.Subjects = make([]catalog.Subject, 0, len(s.Subjects))
	for _, sub := range s.Subjects {
		out.Subjects = append(out.Subjects, sub.Clone())
	}
	out.Marks = s.Marks.Clone()
	return &out
}

func (s *Session) edit(subjectID string, fn func(*catalog.Subject) bool) bool {
	sub := s.subject(subjectID)
	if sub == nil || !fn(sub) {
		return false
	}
	s.touch()
	return true
}

func (s *Session) subject(id string) *catalog.Subject {
	for i := range s.Subjects {
		if s.Subjects[i].ID == id {
			return &s.Subjects[i]
		}
	}
	return nil
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
