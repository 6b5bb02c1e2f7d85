package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tbxark/loanagent/types"
	"gopkg.in/yaml.v3"
)

//go:embed loan_application.yaml
var loanApplicationYAML []byte

const (
	defaultCompletion = "Thank you! Your application has been completed and saved."
	defaultFallback   = "Please provide information about %s"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the immutable description of what a session collects: every record
// field, the ordered plan the interview walks and the question for each field.
type Catalog struct {
	name       string
	completion string
	fallback   string
	fields     []types.FieldInfo
	index      map[string]int
	plan       []string
	planIndex  map[string]int
}

type document struct {
	Name       string            `yaml:"name"`
	Completion string            `yaml:"completion"`
	Fallback   string            `yaml:"fallback"`
	Fields     []types.FieldInfo `yaml:"fields"`
	Plan       []string          `yaml:"plan"`
}

// Default returns the built-in loan application catalog.
func Default() *Catalog {
	c, err := Load(loanApplicationYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Load(data)
}

func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return build(doc)
}

func build(doc document) (*Catalog, error) {
	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidCatalog)
	}
	c := &Catalog{
		name:       doc.Name,
		completion: strings.TrimSpace(doc.Completion),
		fallback:   strings.TrimSpace(doc.Fallback),
		fields:     make([]types.FieldInfo, 0, len(doc.Fields)),
		index:      make(map[string]int, len(doc.Fields)),
		plan:       make([]string, 0, len(doc.Plan)),
		planIndex:  make(map[string]int, len(doc.Plan)),
	}
	if c.completion == "" {
		c.completion = defaultCompletion
	}
	if c.fallback == "" {
		c.fallback = defaultFallback
	}

	for _, f := range doc.Fields {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field without a name", ErrInvalidCatalog)
		}
		if _, dup := c.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidCatalog, f.Name)
		}
		switch f.Kind {
		case "":
			f.Kind = types.KindScalar
		case types.KindScalar, types.KindCompound, types.KindRepeatable:
		default:
			return nil, fmt.Errorf("%w: field %q has unknown kind %q", ErrInvalidCatalog, f.Name, f.Kind)
		}
		c.index[f.Name] = len(c.fields)
		c.fields = append(c.fields, f)
	}

	for _, f := range c.fields {
		if f.Kind != types.KindCompound {
			continue
		}
		spill, ok := c.Field(f.Spill)
		if !ok {
			return nil, fmt.Errorf("%w: compound field %q spills into unknown field %q", ErrInvalidCatalog, f.Name, f.Spill)
		}
		if spill.Name == f.Name || spill.Kind != types.KindScalar {
			return nil, fmt.Errorf("%w: compound field %q must spill into another scalar field", ErrInvalidCatalog, f.Name)
		}
	}

	for _, name := range doc.Plan {
		f, ok := c.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: plan names unknown field %q", ErrInvalidCatalog, name)
		}
		if f.Kind == types.KindRepeatable {
			return nil, fmt.Errorf("%w: repeatable field %q cannot be planned", ErrInvalidCatalog, name)
		}
		if _, dup := c.planIndex[name]; dup {
			return nil, fmt.Errorf("%w: plan lists %q twice", ErrInvalidCatalog, name)
		}
		c.planIndex[name] = len(c.plan)
		c.plan = append(c.plan, name)
	}
	return c, nil
}

func (c *Catalog) Name() string { return c.name }

func (c *Catalog) CompletionMessage() string { return c.completion }

// Plan returns the interview order.
func (c *Catalog) Plan() []string {
	return append([]string{}, c.plan...)
}

func (c *Catalog) PlanLen() int { return len(c.plan) }

// PlanAt returns the plan entry at position i.
func (c *Catalog) PlanAt(i int) types.FieldInfo {
	f, _ := c.Field(c.plan[i])
	return f
}

// PlanIndex reports where name sits in the plan, or -1.
func (c *Catalog) PlanIndex(name string) int {
	if i, ok := c.planIndex[name]; ok {
		return i
	}
	return -1
}

// Fields returns every record field in catalog order.
func (c *Catalog) Fields() []types.FieldInfo {
	return append([]types.FieldInfo{}, c.fields...)
}

func (c *Catalog) FieldNames() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return names
}

func (c *Catalog) Field(name string) (types.FieldInfo, bool) {
	i, ok := c.index[name]
	if !ok {
		return types.FieldInfo{}, false
	}
	return c.fields[i], true
}

// Question returns the prompt for name, or the fallback prompt when the field
// has no template of its own.
func (c *Catalog) Question(name string) string {
	if f, ok := c.Field(name); ok && f.Question != "" {
		return f.Question
	}
	if strings.Contains(c.fallback, "%s") {
		return fmt.Sprintf(c.fallback, name)
	}
	return c.fallback
}

// NewRecord returns a record holding every catalog field, all absent.
func (c *Catalog) NewRecord() *types.Record {
	return types.NewRecord(c.FieldNames()...)
}
