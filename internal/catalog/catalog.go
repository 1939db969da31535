// Package catalog holds the static program → year → semester → subject
// hierarchy that sessions pick their working subjects from.
package catalog

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/crypto/blake2b"
)

// ErrUnknownSelection is returned when a program, year or semester does not
// exist in the catalog.
var ErrUnknownSelection = errors.New("unknown catalog selection")

// Catalog is an immutable, ordered set of programs. Every accessor hands out
// copies, so callers may edit what they receive.
type Catalog struct {
	programs    []Program
	subjects    map[string]Subject
	fingerprint string
}

// New builds a catalog from in-memory programs. Subjects without an ID get
// one derived from their position and name.
func New(programs []Program) (*Catalog, error) {
	c := &Catalog{
		programs: make([]Program, 0, len(programs)),
		subjects: make(map[string]Subject),
	}

	seenPrograms := make(map[string]bool)
	for _, p := range programs {
		if p.ID == "" {
			return nil, fmt.Errorf("program without id")
		}
		if seenPrograms[p.ID] {
			return nil, fmt.Errorf("duplicate program %q", p.ID)
		}
		seenPrograms[p.ID] = true

		prog := Program{ID: p.ID, Years: make([]Year, 0, len(p.Years))}
		for _, y := range p.Years {
			year := Year{ID: y.ID, Semesters: make([]Semester, 0, len(y.Semesters))}
			for _, s := range y.Semesters {
				sem := Semester{ID: s.ID, Subjects: make([]Subject, 0, len(s.Subjects))}
				for _, sub := range s.Subjects {
					sub, err := c.register(p.ID, y.ID, s.ID, sub)
					if err != nil {
						return nil, err
					}
					sem.Subjects = append(sem.Subjects, sub)
				}
				year.Semesters = append(year.Semesters, sem)
			}
			prog.Years = append(prog.Years, year)
		}
		c.programs = append(c.programs, prog)
	}

	data, err := json.Marshal(c.programs)
	if err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}
	sum := blake2b.Sum256(data)
	c.fingerprint = hex.EncodeToString(sum[:])

	return c, nil
}

func (c *Catalog) register(program, year, semester string, sub Subject) (Subject, error) {
	if sub.Coef < 0 {
		return Subject{}, fmt.Errorf("subject %q in %s/%s/%s: negative coefficient", sub.Name, program, year, semester)
	}
	if sub.Coef > MaxCoef {
		return Subject{}, fmt.Errorf("subject %q in %s/%s/%s: coefficient above %d", sub.Name, program, year, semester, MaxCoef)
	}

	inputs := make([]string, 0, len(sub.Inputs))
	for _, in := range sub.Inputs {
		if in != "" && !slices.Contains(inputs, in) {
			inputs = append(inputs, in)
		}
	}
	sub.Inputs = inputs

	if sub.ID == "" {
		base := SubjectID(program, year, semester, sub.Name)
		sub.ID = base
		for n := 2; c.hasSubject(sub.ID); n++ {
			sub.ID = fmt.Sprintf("%s-%d", base, n)
		}
	} else if c.hasSubject(sub.ID) {
		return Subject{}, fmt.Errorf("duplicate subject id %q", sub.ID)
	}

	c.subjects[sub.ID] = sub
	return sub, nil
}

func (c *Catalog) hasSubject(id string) bool {
	_, ok := c.subjects[id]
	return ok
}

// Programs returns the program keys in catalog order.
func (c *Catalog) Programs() []string {
	keys := make([]string, 0, len(c.programs))
	for _, p := range c.programs {
		keys = append(keys, p.ID)
	}
	return keys
}

// Years returns the year keys of a program, or nil if it is unknown.
func (c *Catalog) Years(program string) []string {
	p, ok := c.program(program)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(p.Years))
	for _, y := range p.Years {
		keys = append(keys, y.ID)
	}
	return keys
}

// Semesters returns the semester keys of a program year, or nil if unknown.
func (c *Catalog) Semesters(program, year string) []string {
	y, ok := c.year(program, year)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(y.Semesters))
	for _, s := range y.Semesters {
		keys = append(keys, s.ID)
	}
	return keys
}

// Subjects returns a deep copy of the subjects taught in the given semester.
func (c *Catalog) Subjects(program, year, semester string) ([]Subject, bool) {
	y, ok := c.year(program, year)
	if !ok {
		return nil, false
	}
	for _, s := range y.Semesters {
		if s.ID != semester {
			continue
		}
		out := make([]Subject, 0, len(s.Subjects))
		for _, sub := range s.Subjects {
			out = append(out, sub.Clone())
		}
		return out, true
	}
	return nil, false
}

// Subject returns a copy of the subject with the given id.
func (c *Catalog) Subject(id string) (Subject, bool) {
	s, ok := c.subjects[id]
	if !ok {
		return Subject{}, false
	}
	return s.Clone(), true
}

// Len returns the number of subjects in the catalog.
func (c *Catalog) Len() int {
	return len(c.subjects)
}

// Fingerprint is a hex BLAKE2b-256 digest of the catalog content. It changes
// whenever any program, subject, coefficient or input changes.
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}

// Walk calls fn for every subject in catalog order.
func (c *Catalog) Walk(fn func(program, year, semester string, position int, s Subject) error) error {
	for _, p := range c.programs {
		for _, y := range p.Years {
			for _, s := range y.Semesters {
				for i, sub := range s.Subjects {
					if err := fn(p.ID, y.ID, s.ID, i, sub.Clone()); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (c *Catalog) program(id string) (Program, bool) {
	for _, p := range c.programs {
		if p.ID == id {
			return p, true
		}
	}
	return Program{}, false
}

func (c *Catalog) year(program, year string) (Year, bool) {
	p, ok := c.program(program)
	if !ok {
		return Year{}, false
	}
	for _, y := range p.Years {
		if y.ID == year {
			return y, true
		}
	}
	return Year{}, false
}
