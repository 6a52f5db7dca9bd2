package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"gopkg.in/yaml.v3"

	"github.com/funnelgraph/lag/internal/compiler"
	"github.com/funnelgraph/lag/internal/model"
)

// LoadFunnel loads and compiles a funnel definition from a CUE file or
// directory of CUE files.
func LoadFunnel(path string) (*model.Graph, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("funnel definition not found: %w", err)
	}

	insts := load.Instances([]string{path}, nil)
	if len(insts) == 0 {
		return nil, fmt.Errorf("no CUE instances at %s", path)
	}
	if insts[0].Err != nil {
		return nil, fmt.Errorf("load %s: %w", path, insts[0].Err)
	}

	ctx := cuecontext.New()
	v := ctx.BuildInstance(insts[0])
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}

	g, err := compiler.CompileFunnel(v)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return g, nil
}

// SliceFixtures is a YAML file of parameter slice values, keyed by parameter
// id. Used to seed the slice store from exported retrieval data.
type SliceFixtures struct {
	Parameters map[string][]model.ParameterValue `yaml:"parameters"`
}

// LoadSliceFixtures reads a slice fixture file.
func LoadSliceFixtures(path string) (*SliceFixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var fx SliceFixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return &fx, nil
}
