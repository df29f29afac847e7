package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/cqlsem/internal/sem"
)

// Scenario is a set of statements analyzed against one schema, each with
// its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name" validate:"required"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" validate:"required"`

	// Schema is the directory of CUE table definitions. A relative path is
	// resolved against the scenario file's directory.
	Schema string `yaml:"schema" validate:"required"`

	// Keyspace is the default keyspace for unqualified table names.
	// Empty means sem.DefaultKeyspace.
	Keyspace string `yaml:"keyspace,omitempty"`

	// SystemReadOnly overrides whether system keyspaces reject writes.
	SystemReadOnly *bool `yaml:"system_readonly,omitempty"`

	Cases []Case `yaml:"cases" validate:"required,min=1,dive"`

	// path is the file the scenario was loaded from.
	path string
}

// Path returns the file the scenario was loaded from, or "" when it was
// built in code.
func (s *Scenario) Path() string { return s.path }

// Case is one statement with its expected outcome.
type Case struct {
	Name string `yaml:"name" validate:"required"`

	// Statement is decoded with DecodeStatement.
	Statement yaml.Node `yaml:"statement"`

	Expect Expect `yaml:"expect"`
}

// Expect describes the expected analysis outcome. Error and the plan fields
// are mutually exclusive; empty fields are not checked.
type Expect struct {
	// Error is the expected error code, e.g. MISSING_KEY_CONDITION.
	Error string `yaml:"error,omitempty" validate:"omitempty,uppercase,excluded_with=Kind Key Filter"`

	// Message, when set, must be contained in the error message.
	Message string `yaml:"message,omitempty" validate:"excluded_without=Error"`

	// Kind is the expected plan kind.
	Kind string `yaml:"kind,omitempty" validate:"omitempty,oneof=point static partition full_scan"`

	// Key lists the expected key conditions, rendered as "col op value".
	Key []string `yaml:"key,omitempty"`

	// Filter lists the expected residual filters.
	Filter []string `yaml:"filter,omitempty"`

	// StaticOnly, when set, is compared with StaticColumnArgsOnly.
	StaticOnly *bool `yaml:"static_only,omitempty"`
}

// knownCodes are the error codes an expect clause may name.
var knownCodes = map[string]bool{
	string(sem.ErrCodeTableNotFound):           true,
	string(sem.ErrCodeSystemNamespaceReadOnly): true,
	string(sem.ErrCodeMissingKeyCondition):     true,
	string(sem.ErrCodeIllogicalCondition):      true,
	string(sem.ErrCodeInvalidColumnUsage):      true,
	string(sem.ErrCodeUnsupportedRangeWrite):   true,
	string(sem.ErrCodeUnsupportedOperator):     true,
	string(sem.ErrCodeInvalidTTL):              true,
	string(sem.ErrCodeUndefinedColumn):         true,
	string(sem.ErrCodeDatatypeMismatch):        true,
}

var validate = validator.New()

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	scenario.path = path
	if !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML. Relative schema paths
// are left as given.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file directly under dir, sorted
// by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks struct tags, then the rules tags cannot express.
func validateScenario(s *Scenario) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true

		if c.Statement.Kind == 0 {
			return fmt.Errorf("cases[%d]: statement is required", i)
		}
		if c.Expect.Error != "" && !knownCodes[c.Expect.Error] {
			return fmt.Errorf("cases[%d]: unknown error code %q", i, c.Expect.Error)
		}
	}
	return nil
}
