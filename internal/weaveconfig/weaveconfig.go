// Package weaveconfig loads the optional project configuration file
// (weave.yaml) consulted by the CLI harness for defaults: which source
// file to run when none is given on the command line, which debug traces
// to print by default, and whether diagnostic output should be colorized.
// New package exercising gopkg.in/yaml.v3, a teacher go.mod dependency
// never imported by any teacher package.
package weaveconfig

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config mirrors the CLI's trace flags plus a couple of project-level
// defaults; any zero value simply means "use the built-in default" —
// the harness applies Config before flags, so a flag always wins.
type Config struct {
	DefaultSource     string `yaml:"default_source"`
	TraceTokens       bool   `yaml:"trace_tokens"`
	TraceAST          bool   `yaml:"trace_ast"`
	TraceWovenAST     bool   `yaml:"trace_woven_ast"`
	TraceInstructions bool   `yaml:"trace_instructions"`
	TraceBytecode     bool   `yaml:"trace_bytecode"`
	Color             *bool  `yaml:"color"`
}

const fileName = "weave.yaml"

// Load looks for weave.yaml first beside sourcePath (if non-empty), then
// in the current working directory, parsing the first one found. A
// missing file is not an error — it returns a zero Config, meaning every
// setting falls back to its built-in default.
func Load(sourcePath string) (Config, error) {
	var candidates []string
	if sourcePath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(sourcePath), fileName))
	}
	candidates = append(candidates, fileName)

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, err
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	return Config{}, nil
}
