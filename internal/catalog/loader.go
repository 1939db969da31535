package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed program.schema.json
var programSchemaJSON string

//go:embed data/*.yaml
var defaultData embed.FS

var (
	programSchemaOnce sync.Once
	programSchema     *gojsonschema.Schema
	programSchemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	programSchemaOnce.Do(func() {
		programSchema, programSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(programSchemaJSON))
	})
	return programSchema, programSchemaErr
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(defaultData, "data")
	if err != nil {
		return nil, fmt.Errorf("opening embedded catalog: %w", err)
	}
	return Load(sub)
}

// NewLoader loads every program document found under rootDir.
func NewLoader(rootDir string) (*Catalog, error) {
	return Load(os.DirFS(rootDir))
}

// Load reads one program per YAML file, in lexical path order, validating
// each document against the program schema.
func Load(fsys fs.FS) (*Catalog, error) {
	var programs []Program

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		prog, ok, err := loadProgram(fsys, p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		if ok {
			programs = append(programs, prog)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	c, err := New(programs)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	slog.Info("catalog loaded", "programs", len(c.programs), "subjects", c.Len())
	return c, nil
}

func loadProgram(fsys fs.FS, p string) (Program, bool, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return Program{}, false, err
	}

	var partial struct {
		Program string `yaml:"program"`
	}
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return Program{}, false, fmt.Errorf("parsing yaml: %w", err)
	}
	if partial.Program == "" {
		slog.Debug("skipping non-program yaml", "path", p)
		return Program{}, false, nil
	}

	if err := Validate(data); err != nil {
		return Program{}, false, err
	}

	var prog Program
	if err := yaml.Unmarshal(data, &prog); err != nil {
		return Program{}, false, fmt.Errorf("decoding program: %w", err)
	}
	return prog, true, nil
}

// Validate checks a YAML program document against the program schema.
func Validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling program schema: %w", err)
	}

	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validating program: %w", err)
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid program: %s", strings.Join(msgs, "; "))
}
