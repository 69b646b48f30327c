// Package config loads project settings from codeassist.yml and the
// environment from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/codeassist/internal/llm"
	"github.com/dusk-indust/codeassist/internal/runner"
)

// FileNames are the accepted config file names, in lookup order.
var FileNames = []string{"codeassist.yml", "codeassist.yaml"}

// Defaults for the artifact directories, relative to the project root.
const (
	DefaultTestsDir   = "tests/generated"
	DefaultDocsDir    = "documentation/generated_docs"
	DefaultResultsDir = "tests/results"
)

// Plugin descriptors are user owned: they are never read from the project
// being scanned, since a descriptor names a command to execute.
const (
	PluginDirEnv = "CODEASSIST_PLUGIN_DIR"
	pluginSubdir = "codeassist/agents"
)

// Duration is a time.Duration written as a Go duration string ("90s").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ProjectConfig holds project-level settings loaded from codeassist.yml.
type ProjectConfig struct {
	MaxFiles    int      `yaml:"maxFiles,omitempty"`
	ExcludeDirs []string `yaml:"excludeDirs,omitempty"`

	Model         string   `yaml:"model,omitempty"`
	LLMTimeout    Duration `yaml:"llmTimeout,omitempty"`
	RunnerTimeout Duration `yaml:"runnerTimeout,omitempty"`

	LongFunctionLines int `yaml:"longFunctionLines,omitempty"`
	LargeFileLines    int `yaml:"largeFileLines,omitempty"`
	MinDocLines       int `yaml:"minDocLines,omitempty"`
	MaxImports        int `yaml:"maxImports,omitempty"`

	TestsDir   string `yaml:"testsDir,omitempty"`
	DocsDir    string `yaml:"docsDir,omitempty"`
	ResultsDir string `yaml:"resultsDir,omitempty"`

	Verbose bool `yaml:"verbose,omitempty"`

	// Dir is the project root the relative directories resolve against.
	Dir string `yaml:"-"`

	// Source is the config file that was read, empty for defaults.
	Source string `yaml:"-"`
}

// Load looks for a config file in dir and then in each parent directory.
// Returns a default config rooted at dir (not an error) if none exists.
func Load(dir string) (*ProjectConfig, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	for cur := abs; ; {
		for _, name := range FileNames {
			path := filepath.Join(cur, name)
			if _, err := os.Stat(path); err == nil {
				return LoadFile(path)
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	cfg := &ProjectConfig{Dir: abs}
	return cfg.withDefaults(), nil
}

// LoadFile reads an explicit config file. Its directory becomes the project root.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.Dir = filepath.Dir(abs)
	cfg.Source = abs
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

// Validate rejects values that can never be meaningful.
func (c *ProjectConfig) Validate() error {
	var errs []error
	if c.MaxFiles < 0 {
		errs = append(errs, fmt.Errorf("maxFiles must not be negative, got %d", c.MaxFiles))
	}
	if c.LLMTimeout < 0 {
		errs = append(errs, errors.New("llmTimeout must not be negative"))
	}
	if c.RunnerTimeout < 0 {
		errs = append(errs, errors.New("runnerTimeout must not be negative"))
	}
	for name, v := range map[string]int{
		"longFunctionLines": c.LongFunctionLines,
		"largeFileLines":    c.LargeFileLines,
		"minDocLines":       c.MinDocLines,
		"maxImports":        c.MaxImports,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}
	return errors.Join(errs...)
}

func (c *ProjectConfig) withDefaults() *ProjectConfig {
	if c.Model == "" {
		c.Model = llm.DefaultModel
	}
	if c.LLMTimeout == 0 {
		c.LLMTimeout = Duration(llm.DefaultTimeout)
	}
	if c.RunnerTimeout == 0 || c.RunnerTimeout.Std() > runner.MaxTimeout {
		c.RunnerTimeout = Duration(runner.MaxTimeout)
	}
	if c.TestsDir == "" {
		c.TestsDir = DefaultTestsDir
	}
	if c.DocsDir == "" {
		c.DocsDir = DefaultDocsDir
	}
	if c.ResultsDir == "" {
		c.ResultsDir = DefaultResultsDir
	}
	return c
}

// PluginDir resolves the plugin descriptor directory: explicit when set,
// then $CODEASSIST_PLUGIN_DIR, then <user config dir>/codeassist/agents.
// getenv defaults to os.Getenv.
func PluginDir(explicit string, getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	dir := explicit
	if dir == "" {
		dir = getenv(PluginDirEnv)
	}
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("config: plugin dir: %w", err)
		}
		dir = filepath.Join(base, filepath.FromSlash(pluginSubdir))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: plugin dir %s: %w", dir, err)
	}
	return abs, nil
}

// Path resolves a configured directory against the project root.
func (c *ProjectConfig) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Dir, filepath.FromSlash(rel))
}

// ArtifactDirs returns the generated-output directories that lie under
// root, relative to it and slash separated, for exclusion from discovery.
func (c *ProjectConfig) ArtifactDirs(root string) []string {
	var out []string
	for _, d := range []string{c.TestsDir, c.DocsDir, c.ResultsDir} {
		rel, err := filepath.Rel(root, c.Path(d))
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

// LoadEnv loads .env files from dirs without overriding variables already
// set. Missing files are skipped; the paths that were read are returned.
func LoadEnv(dirs ...string) ([]string, error) {
	var (
		loaded []string
		errs   []error
		seen   = map[string]bool{}
	)
	for _, dir := range dirs {
		path := filepath.Join(dir, ".env")
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if seen[path] {
			continue
		}
		seen[path] = true

		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			errs = append(errs, fmt.Errorf("config: load %s: %w", path, err))
			continue
		}
		loaded = append(loaded, path)
	}
	return loaded, errors.Join(errs...)
}
