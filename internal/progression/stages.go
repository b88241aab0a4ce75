package progression

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Stage is one step of the companion's evolution ladder.
type Stage struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
}

// Config is an ordered stage table: thresholds strictly increasing,
// the first always zero. Treated as immutable once loaded.
type Config []Stage

// DefaultConfig returns the built-in 16-stage table used when no
// stage file is supplied or the supplied one fails validation.
func DefaultConfig() Config {
	return Config{
		{Name: "Egg", Threshold: 0},
		{Name: "Hatchling", Threshold: 10},
		{Name: "Tadpole", Threshold: 25},
		{Name: "Froglet", Threshold: 45},
		{Name: "Frog", Threshold: 70},
		{Name: "Turtle", Threshold: 100},
		{Name: "Crab", Threshold: 140},
		{Name: "Seahorse", Threshold: 190},
		{Name: "Fish", Threshold: 250},
		{Name: "Penguin", Threshold: 320},
		{Name: "Otter", Threshold: 400},
		{Name: "Fox", Threshold: 500},
		{Name: "Wolf", Threshold: 620},
		{Name: "Lion", Threshold: 760},
		{Name: "Dragon", Threshold: 920},
		{Name: "Phoenix", Threshold: 1100},
	}
}

// Validate checks the structural invariants of a stage table.
func (c Config) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("stage config is empty")
	}
	if c[0].Threshold != 0 {
		return fmt.Errorf("first stage threshold must be 0, got %d", c[0].Threshold)
	}
	for i := 1; i < len(c); i++ {
		if c[i].Threshold <= c[i-1].Threshold {
			return fmt.Errorf("thresholds must strictly increase: stage %d (%d) after %d", i, c[i].Threshold, c[i-1].Threshold)
		}
	}
	for i, s := range c {
		if s.Name == "" {
			return fmt.Errorf("stage %d has no name", i)
		}
	}
	return nil
}

// stageFileSchema validates the on-disk stage file before decoding.
const stageFileSchema = `{
	"type": "object",
	"required": ["stages"],
	"properties": {
		"stages": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["name", "threshold"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"threshold": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`

type stageFile struct {
	Stages Config `json:"stages"`
}

// Load reads a stage table from a JSON file of the form
// {"stages":[{"name":...,"threshold":...},...]}. The document is
// checked against an embedded JSON Schema before decoding. Callers
// fall back to DefaultConfig on any error.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stage config: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse stage config: %w", err)
	}
	compiled, err := compiledStageSchema()
	if err != nil {
		return nil, err
	}
	if err := compiled.Validate(parsed); err != nil {
		return nil, fmt.Errorf("stage config schema validation failed: %w", err)
	}

	var f stageFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode stage config: %w", err)
	}
	if err := f.Stages.Validate(); err != nil {
		return nil, err
	}
	return f.Stages, nil
}

func compiledStageSchema() (*jsonschema.Schema, error) {
	var def any
	if err := json.Unmarshal([]byte(stageFileSchema), &def); err != nil {
		return nil, fmt.Errorf("parse embedded schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	const url = "schema://stages.json"
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}
