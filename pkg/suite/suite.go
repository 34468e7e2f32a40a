// Package suite loads harness test cases from YAML, workbooks and reference files
package suite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/clover/pkg/baseline"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/relevance"
)

// Run modes
const (
	ModeRegression = "regression"
	ModeRelevance  = "relevance"
	ModeTargeted   = "targeted"
	ModeBenchmark  = "benchmark"
)

// DefaultExpectedResultType applies when neither the case nor the suite names one
const DefaultExpectedResultType = relevance.ExactMatch

var validate = validator.New(validator.WithRequiredStructEnabled())

// Defaults are applied to cases that leave a field empty
type Defaults struct {
	EntityType         string `yaml:"entity_type" validate:"omitempty,oneof=P E"`
	ExpectedResultType string `yaml:"expected_result_type"`
}

// Case is one search term under test
type Case struct {
	Name               string `yaml:"name"`
	SearchTerm         string `yaml:"search_term" validate:"required"`
	EntityType         string `yaml:"entity_type" validate:"omitempty,oneof=P E"`
	ExpectedResultType string `yaml:"expected_result_type"`
	Notes              string `yaml:"notes"`

	// Variation is the alternate spelling compared against SearchTerm in benchmark runs
	Variation        string `yaml:"variation"`
	Category         string `yaml:"category"`
	ExpectedBehavior string `yaml:"expected_behavior"`

	Rules    relevance.Rules    `yaml:"rules" validate:"dive"`
	Expected relevance.Expected `yaml:"expected" validate:"dive,dive"`

	// Baseline is an inline legacy payload or a path relative to the suite file
	Baseline string `yaml:"baseline"`

	Row             int                `yaml:"-"`
	RuleSet         *relevance.RuleSet `yaml:"-"`
	BaselineRecords models.RecordSet   `yaml:"-"`
	BaselineError   error              `yaml:"-"`
}

// Suite is a named list of cases
type Suite struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Mode        string   `yaml:"mode" validate:"omitempty,oneof=regression relevance targeted benchmark"`
	Defaults    Defaults `yaml:"defaults"`
	Cases       []Case   `yaml:"cases" validate:"dive"`

	// Dir resolves relative baseline paths
	Dir string `yaml:"-"`
}

// Load reads and prepares a YAML suite file
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}
	s, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Parse decodes a YAML suite, applies defaults, validates it and resolves baselines
func Parse(data []byte, dir string) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	s.Dir = dir
	if err := s.Prepare(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Prepare applies defaults, validates cases, compiles rules and resolves baselines.
// Baseline payloads that fail to parse are recorded on the case rather than failing the suite.
func (s *Suite) Prepare() error {
	s.Defaults.EntityType = strings.ToUpper(strings.TrimSpace(s.Defaults.EntityType))
	for i := range s.Cases {
		s.Cases[i].applyDefaults(s.Defaults)
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid suite: %w", err)
	}

	for i := range s.Cases {
		c := &s.Cases[i]
		rs, err := c.Rules.Compile()
		if err != nil {
			return fmt.Errorf("case %q: %w", c.Name, err)
		}
		c.RuleSet = rs
		if c.Expected, err = c.Expected.Normalize(); err != nil {
			return fmt.Errorf("case %q: %w", c.Name, err)
		}
		if c.BaselineRecords == nil {
			c.BaselineRecords, c.BaselineError = s.resolveBaseline(c.Baseline)
		}
	}
	return nil
}

func (c *Case) applyDefaults(d Defaults) {
	c.SearchTerm = strings.TrimSpace(c.SearchTerm)
	c.EntityType = strings.ToUpper(strings.TrimSpace(c.EntityType))
	if c.EntityType == "" {
		c.EntityType = d.EntityType
	}
	if c.ExpectedResultType == "" {
		c.ExpectedResultType = d.ExpectedResultType
	}
	if c.ExpectedResultType == "" {
		c.ExpectedResultType = DefaultExpectedResultType
	}
	if c.Name == "" {
		c.Name = c.SearchTerm
	}
}

func (s *Suite) resolveBaseline(ref string) (models.RecordSet, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == baseline.NoHits || strings.HasPrefix(ref, "{") {
		return baseline.ParsePreview([]byte(ref))
	}
	path := ref
	if !filepath.IsAbs(path) && s.Dir != "" {
		path = filepath.Join(s.Dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.NewRecordSet(), fmt.Errorf("failed to read baseline %s: %w", ref, err)
	}
	return baseline.ParsePreview(data)
}

// HasBaseline reports whether the case recorded a legacy payload
func (c *Case) HasBaseline() bool {
	return strings.TrimSpace(c.Baseline) != ""
}

// FromBaseline builds a regression suite from workbook baseline entities
func FromBaseline(name string, entities []baseline.Entity) *Suite {
	s := &Suite{Name: name, Mode: ModeRegression}
	for _, e := range entities {
		s.Cases = append(s.Cases, Case{
			Name:               e.Name,
			SearchTerm:         e.Name,
			EntityType:         e.Type,
			ExpectedResultType: DefaultExpectedResultType,
			Row:                e.Row,
			BaselineRecords:    e.Baseline,
			BaselineError:      e.ParseError,
		})
	}
	return s
}

// FromReferences builds a relevance suite with one lowercased case per reference term
func FromReferences(name string, refs *baseline.References, entityType string) *Suite {
	s := &Suite{Name: name, Mode: ModeRelevance}
	for _, term := range refs.Terms() {
		q := strings.ToLower(term)
		s.Cases = append(s.Cases, Case{
			Name:               q,
			SearchTerm:         q,
			EntityType:         strings.ToUpper(entityType),
			ExpectedResultType: DefaultExpectedResultType,
			Notes:              strings.Join(refs.Keywords(term), ", "),
		})
	}
	return s
}
