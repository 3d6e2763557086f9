package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lightorm/internal/sqltext"
)

// Step operations.
const (
	OpEnsure = "ensure"
	OpGet    = "get"
	OpGetAll = "get_all"
	OpUpdate = "update"
	OpQuery  = "query"
)

// Assertion types.
const (
	AssertRowCount   = "row_count"
	AssertFinalState = "final_state"
)

// Scenario is a sequence of accessor operations run against a fresh store.
//
// Column values are kept as YAML nodes and converted with package
// yamlvalue when a step runs, so dates stay text as written.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	// Schema statements are applied when the store is created.
	Schema []string `yaml:"schema"`

	// IdentityColumn overrides the generic identity column name ("id").
	IdentityColumn string `yaml:"identity_column,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// Table is required by every op except query.
	Table string `yaml:"table,omitempty"`

	// Where is the identifying filter of ensure, get and get_all.
	Where map[string]yaml.Node `yaml:"where,omitempty"`

	// Defaults are merged under Where when ensure inserts.
	Defaults map[string]yaml.Node `yaml:"defaults,omitempty"`

	// Identity selects the row to update.
	Identity yaml.Node `yaml:"identity,omitempty"`

	// Set lists the columns update changes.
	Set map[string]yaml.Node `yaml:"set,omitempty"`

	SQL  string      `yaml:"sql,omitempty"`
	Args []yaml.Node `yaml:"args,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome a step should have. Unset fields are not
// checked.
type Expect struct {
	// Created applies to ensure.
	Created *bool `yaml:"created,omitempty"`

	// Identity is the identity value of the resulting row.
	Identity yaml.Node `yaml:"identity,omitempty"`

	// Record lists columns the resulting row must contain.
	Record map[string]yaml.Node `yaml:"record,omitempty"`

	// Rows is the number of rows returned by get_all or query.
	Rows *int `yaml:"rows,omitempty"`

	// Found applies to get.
	Found *bool `yaml:"found,omitempty"`

	// Error is the error code the step must fail with.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks the final state of the store.
type Assertion struct {
	Type  string               `yaml:"type"`
	Table string               `yaml:"table"`
	Where map[string]yaml.Node `yaml:"where,omitempty"`

	// Count applies to row_count.
	Count *int `yaml:"count,omitempty"`

	// Expect applies to final_state.
	Expect map[string]yaml.Node `yaml:"expect,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario decodes a scenario. Unknown keys are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty scenario")
		}
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the structure of s without touching a database.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return errors.New("scenario name is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("scenario has no steps")
	}
	if s.IdentityColumn != "" {
		if _, err := sqltext.Ident(s.IdentityColumn); err != nil {
			return fmt.Errorf("identity_column: %w", err)
		}
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	for i, a := range s.Assertions {
		if err := a.validate(); err != nil {
			return fmt.Errorf("assertion %d: %w", i+1, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	switch st.Op {
	case OpEnsure, OpGet, OpGetAll:
		if st.Table == "" {
			return fmt.Errorf("%s requires a table", st.Op)
		}
	case OpUpdate:
		if st.Table == "" {
			return errors.New("update requires a table")
		}
		if !present(st.Identity) {
			return errors.New("update requires an identity")
		}
		if len(st.Set) == 0 {
			return errors.New("update requires at least one column to set")
		}
	case OpQuery:
		if st.SQL == "" {
			return errors.New("query requires sql")
		}
	case "":
		return errors.New("op is required")
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return nil
}

// present reports whether node was given a non-null value.
func present(node yaml.Node) bool {
	return node.Kind != 0 && node.ShortTag() != "!!null"
}

func (a Assertion) validate() error {
	if a.Table == "" {
		return fmt.Errorf("%s requires a table", a.Type)
	}
	switch a.Type {
	case AssertRowCount:
		if a.Count == nil {
			return errors.New("row_count requires count")
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return errors.New("final_state requires expect")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
