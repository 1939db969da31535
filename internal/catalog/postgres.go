package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS catalog_subjects (
	program_position INT NOT NULL,
	program          TEXT NOT NULL,
	year             TEXT NOT NULL,
	semester         TEXT NOT NULL,
	position         INT NOT NULL,
	subject_id       TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	coef             DOUBLE PRECISION NOT NULL CHECK (coef >= 0),
	kind             TEXT NOT NULL DEFAULT '',
	inputs           TEXT[] NOT NULL DEFAULT '{}'
)`

// PostgresSource reads and writes the catalog in the catalog_subjects table.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a catalog source backed by pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// EnsureSchema creates the catalog_subjects table if it does not exist.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("catalog source pool is nil")
	}
	if _, err := s.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create catalog table: %w", err)
	}
	return nil
}

// Load builds a catalog from the table, keeping the stored order.
func (s *PostgresSource) Load(ctx context.Context) (*Catalog, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("catalog source pool is nil")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT program, year, semester, subject_id, name, coef, kind, inputs
		 FROM catalog_subjects
		 ORDER BY program_position, year, semester, position`,
	)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var b builder
	for rows.Next() {
		var program, year, semester string
		var sub Subject
		var kind string
		if err := rows.Scan(&program, &year, &semester, &sub.ID, &sub.Name, &sub.Coef, &kind, &sub.Inputs); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		sub.Kind = Kind(kind)
		b.add(program, year, semester, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}

	c, err := New(b.programs)
	if err != nil {
		return nil, err
	}
	slog.Info("catalog loaded from postgres", "programs", len(c.programs), "subjects", c.Len())
	return c, nil
}

// Seed replaces the table content with c in a single transaction.
func (s *PostgresSource) Seed(ctx context.Context, c *Catalog) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("catalog source pool is nil")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM catalog_subjects`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}

	programPos := make(map[string]int)
	for i, p := range c.Programs() {
		programPos[p] = i
	}

	batch := &pgx.Batch{}
	err = c.Walk(func(program, year, semester string, position int, sub Subject) error {
		batch.Queue(
			`INSERT INTO catalog_subjects
			   (program_position, program, year, semester, position, subject_id, name, coef, kind, inputs)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			programPos[program], program, year, semester, position,
			sub.ID, sub.Name, sub.Coef, string(sub.Kind), sub.Inputs,
		)
		return nil
	})
	if err != nil {
		return err
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert catalog rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}

	slog.Info("catalog seeded", "subjects", c.Len())
	return nil
}

// builder regroups flat rows into the program tree, preserving first-seen order.
type builder struct {
	programs []Program
}

func (b *builder) add(program, year, semester string, sub Subject) {
	pi := -1
	for i := range b.programs {
		if b.programs[i].ID == program {
			pi = i
			break
		}
	}
	if pi < 0 {
		b.programs = append(b.programs, Program{ID: program})
		pi = len(b.programs) - 1
	}
	p := &b.programs[pi]

	yi := -1
	for i := range p.Years {
		if p.Years[i].ID == year {
			yi = i
			break
		}
	}
	if yi < 0 {
		p.Years = append(p.Years, Year{ID: year})
		yi = len(p.Years) - 1
	}
	y := &p.Years[yi]

	si := -1
	for i := range y.Semesters {
		if y.Semesters[i].ID == semester {
			si = i
			break
		}
	}
	if si < 0 {
		y.Semesters = append(y.Semesters, Semester{ID: semester})
		si = len(y.Semesters) - 1
	}
	y.Semesters[si].Subjects = append(y.Semesters[si].Subjects, sub)
}
