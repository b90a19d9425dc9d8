package transfer

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/godoo/godoo-rpc/internal/odoo"
)

// =============================================================================
// JOB FILES
// Transfers are declared in YAML: an ordered job list where later jobs can
// reuse the id maps produced by earlier ones for their relational fields.
// =============================================================================

// JobFile is the top-level YAML document.
type JobFile struct {
	Jobs []Job `yaml:"jobs"`
}

// Job declares one model transfer.
type Job struct {
	// Name identifies the job; later jobs reference it in map_from.
	Name string `yaml:"name"`

	// Model is the Odoo model to copy.
	Model string `yaml:"model"`

	// Fields lists the fields to carry over.
	Fields []FieldSpec `yaml:"fields"`

	// Match is the equality domain used to find existing target records;
	// values may use "%(field)s" placeholders.
	Match []ConditionSpec `yaml:"match"`

	// Source optionally restricts which source records transfer.
	Source []ConditionSpec `yaml:"source"`
}

// FieldSpec declares one transferred field.
type FieldSpec struct {
	Name string `yaml:"name"`

	// HTML fields default to an empty paragraph when blank.
	HTML bool `yaml:"html"`

	// MapFrom names an earlier job whose id map rewrites this relational
	// field.
	MapFrom string `yaml:"map_from"`
}

// ConditionSpec is a [field, operator, value] triple in YAML.
type ConditionSpec struct {
	Field    string
	Operator string
	Value    any
}

// UnmarshalYAML decodes a 3-element sequence.
func (c *ConditionSpec) UnmarshalYAML(node *yaml.Node) error {
	var triple []any
	if err := node.Decode(&triple); err != nil {
		return err
	}
	if len(triple) != 3 {
		return fmt.Errorf("condition needs [field, operator, value], got %d elements", len(triple))
	}
	field, ok := triple[0].(string)
	if !ok {
		return fmt.Errorf("condition field must be a string, got %T", triple[0])
	}
	operator, ok := triple[1].(string)
	if !ok {
		return fmt.Errorf("condition operator must be a string, got %T", triple[1])
	}
	c.Field, c.Operator, c.Value = field, operator, triple[2]
	return nil
}

// Domain converts condition specs to a search domain.
func toDomain(specs []ConditionSpec) odoo.Domain {
	d := make(odoo.Domain, 0, len(specs))
	for _, spec := range specs {
		d = append(d, odoo.C(spec.Field, spec.Operator, spec.Value))
	}
	return d
}

// LoadJobs reads a YAML job file.
func LoadJobs(path string) (*JobFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	var file JobFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse job file %s: %w", path, err)
	}
	for i, job := range file.Jobs {
		if job.Model == "" {
			return nil, fmt.Errorf("job %d has no model", i+1)
		}
		if job.Name == "" {
			file.Jobs[i].Name = job.Model
		}
		if len(job.Fields) == 0 {
			return nil, fmt.Errorf("job %q has no fields", file.Jobs[i].Name)
		}
		if len(job.Match) == 0 {
			return nil, fmt.Errorf("job %q has no match domain", file.Jobs[i].Name)
		}
	}
	return &file, nil
}

// Run executes the job list in order, feeding every job's id map to the
// map_from references of later jobs. Returns the id maps keyed by job name.
func (r *Runner) Run(ctx context.Context, file *JobFile) (map[string]IDMap, error) {
	maps := map[string]IDMap{}
	for _, job := range file.Jobs {
		rules := make(Rules, len(job.Fields))
		for _, field := range job.Fields {
			rule := FieldRule{HTML: field.HTML}
			if field.MapFrom != "" {
				idMap, ok := maps[field.MapFrom]
				if !ok {
					return nil, fmt.Errorf("job %q: field %q maps from unknown job %q", job.Name, field.Name, field.MapFrom)
				}
				rule.Map = idMap
			}
			rules[field.Name] = rule
		}

		r.Log.Info("running transfer job",
			zap.String("job", job.Name),
			zap.String("model", job.Model))
		mapping, err := r.Transfer(ctx, job.Model, rules, toDomain(job.Match), toDomain(job.Source))
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", job.Name, err)
		}
		maps[job.Name] = mapping
	}
	return maps, nil
}
