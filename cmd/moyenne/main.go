package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/isimg/moyenne/internal/catalog"
	"github.com/isimg/moyenne/internal/grading"
	"github.com/isimg/moyenne/internal/platform/config"
	"github.com/isimg/moyenne/internal/platform/database"
	"github.com/isimg/moyenne/internal/report"
	"github.com/isimg/moyenne/internal/session"
)

var catalogDir string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "moyenne",
		Short:        "Semester grade average calculator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalog", "", "directory of program YAML files (default: built-in catalog)")

	rootCmd.AddCommand(programsCmd())
	rootCmd.AddCommand(yearsCmd())
	rootCmd.AddCommand(semestersCmd())
	rootCmd.AddCommand(subjectsCmd())
	rootCmd.AddCommand(computeCmd())
	rootCmd.AddCommand(catalogCmd())
	return rootCmd
}

func getCatalog() (*catalog.Catalog, error) {
	if catalogDir != "" {
		return catalog.NewLoader(catalogDir)
	}
	return catalog.Default()
}

func programsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "programs",
		Short: "List programs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getCatalog()
			if err != nil {
				return err
			}
			printLines(cmd.OutOrStdout(), c.Programs())
			return nil
		},
	}
}

func yearsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "years [program]",
		Short: "List the years of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getCatalog()
			if err != nil {
				return err
			}
			years := c.Years(args[0])
			if years == nil {
				return fmt.Errorf("program %q: %w", args[0], catalog.ErrUnknownSelection)
			}
			printLines(cmd.OutOrStdout(), years)
			return nil
		},
	}
}

func semestersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "semesters [program] [year]",
		Short: "List the semesters of a program year",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getCatalog()
			if err != nil {
				return err
			}
			semesters := c.Semesters(args[0], args[1])
			if semesters == nil {
				return fmt.Errorf("%s year %s: %w", args[0], args[1], catalog.ErrUnknownSelection)
			}
			printLines(cmd.OutOrStdout(), semesters)
			return nil
		},
	}
}

func subjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subjects [program] [year] [semester]",
		Short: "List the subjects of a semester with their ids",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getCatalog()
			if err != nil {
				return err
			}
			subjects, ok := c.Subjects(args[0], args[1], args[2])
			if !ok {
				return fmt.Errorf("%s: %w", strings.Join(args, "/"), catalog.ErrUnknownSelection)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSUBJECT\tCOEF\tINPUTS")
			for _, s := range subjects {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Name, formatCoef(s.Coef), strings.Join(s.Inputs, ", "))
			}
			return tw.Flush()
		},
	}
}

func computeCmd() *cobra.Command {
	var (
		marks        []string
		coefs        []string
		addInputs    []string
		removeInputs []string
		xlsxPath     string
	)

	cmd := &cobra.Command{
		Use:   "compute [program] [year] [semester]",
		Short: "Compute subject and semester averages",
		Long: `Compute subject and semester averages.

Edits are applied in order: coefficients, added inputs, removed inputs, then marks.
Subject ids are shown by the subjects command.`,
		Example: `  moyenne compute LTIC 1 1 --mark ltic-y1-s1-analyse_1:DS=12 --mark ltic-y1-s1-analyse_1:Examen=14`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getCatalog()
			if err != nil {
				return err
			}

			s := session.New()
			for i, level := range []session.Level{session.LevelProgram, session.LevelYear, session.LevelSemester} {
				if err := s.Select(c, level, args[i]); err != nil {
					return err
				}
			}

			if err := applyEdits(s, coefs, addInputs, removeInputs, marks); err != nil {
				return err
			}

			if err := printResult(cmd.OutOrStdout(), s.Result()); err != nil {
				return err
			}

			if xlsxPath != "" {
				f, err := os.Create(xlsxPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", xlsxPath, err)
				}
				defer f.Close()
				sel := report.Selection{Program: s.Program, Year: s.Year, Semester: s.Semester}
				if err := report.WriteXLSX(f, sel, s.Subjects, s.Marks); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", xlsxPath)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&marks, "mark", nil, "score entry as ID:LABEL=VALUE (repeatable)")
	cmd.Flags().StringArrayVar(&coefs, "coef", nil, "coefficient as ID=VALUE (repeatable)")
	cmd.Flags().StringArrayVar(&addInputs, "add-input", nil, "add an input as ID=LABEL (repeatable)")
	cmd.Flags().StringArrayVar(&removeInputs, "remove-input", nil, "remove an input as ID=LABEL (repeatable)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the result to an XLSX file")
	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate or publish program catalogs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [dir]",
		Short: "Check a directory of program YAML files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.NewLoader(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d programs, %d subjects, fingerprint %s\n",
				len(c.Programs()), c.Len(), c.Fingerprint()[:12])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Replace the catalog stored in PostgreSQL (MOYENNE_DATABASE_URL)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getCatalog()
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
			if err != nil {
				return err
			}
			defer db.Close()

			src := catalog.NewPostgresSource(db.Pool)
			if err := src.EnsureSchema(ctx); err != nil {
				return err
			}
			if err := src.Seed(ctx, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d subjects\n", c.Len())
			return nil
		},
	})
	return cmd
}

// applyEdits applies command line edits to a session, failing on the first
// one the session rejects.
func applyEdits(s *session.Session, coefs, addInputs, removeInputs, marks []string) error {
	for _, raw := range coefs {
		id, value, err := parseAssignment(raw)
		if err != nil {
			return fmt.Errorf("--coef: %w", err)
		}
		if !s.SetCoefficient(id, value) {
			return fmt.Errorf("--coef %s: rejected", raw)
		}
	}
	for _, raw := range addInputs {
		id, label, err := parseAssignment(raw)
		if err != nil {
			return fmt.Errorf("--add-input: %w", err)
		}
		if !s.AddInput(id, label) {
			return fmt.Errorf("--add-input %s: rejected", raw)
		}
	}
	for _, raw := range removeInputs {
		id, label, err := parseAssignment(raw)
		if err != nil {
			return fmt.Errorf("--remove-input: %w", err)
		}
		if !s.RemoveInput(id, label) {
			return fmt.Errorf("--remove-input %s: rejected", raw)
		}
	}
	for _, raw := range marks {
		id, label, value, err := parseMark(raw)
		if err != nil {
			return fmt.Errorf("--mark: %w", err)
		}
		if !s.SetMark(id, label, value) {
			return fmt.Errorf("--mark %s: rejected (scores are decimals from 0 to 20)", raw)
		}
	}
	return nil
}

func printResult(w io.Writer, res grading.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBJECT\tCOEF\tFORMULA\tAVERAGE")
	for _, s := range res.Subjects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\n", s.Name, formatCoef(s.Coef), s.Formula.Kind, grading.Round2(s.Average))
	}
	fmt.Fprintf(tw, "%s\t%s\t\t%.2f\n", report.OverallLabel, formatCoef(res.TotalCoef), grading.Round2(res.Average))
	if err := tw.Flush(); err != nil {
		return err
	}

	verdict := "ajourné"
	if res.Passed {
		verdict = "admis"
	}
	_, err := fmt.Fprintf(w, "\n%s\n", verdict)
	return err
}

func printLines(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

func formatCoef(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}
