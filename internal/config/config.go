// Package config holds the explicit configuration handed to the build manager.
//
// Values are read from LOCBUILD_* environment variables, then overlaid by an
// optional YAML file. Callers overlay command line flags last.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultToolchainDir is substituted into the script template when no
// installed toolchain can be located.
const DefaultToolchainDir = "/opt/locbuild/toolchain/bin"

const envPrefix = "LOCBUILD_"

type Config struct {
	LogLevel      string `env:"LOG_LEVEL"       envDefault:"info"    yaml:"log_level"`
	LogFormat     string `env:"LOG_FORMAT"      envDefault:"text"    yaml:"log_format"`
	LogColored    bool   `env:"LOG_COLORED"     envDefault:"true"    yaml:"log_colored"`
	LogTimeFormat string `env:"LOG_TIME_FORMAT" envDefault:"15:04:05" yaml:"log_time_format"`

	// ToolchainDir, when set, is used as the tool directory without probing.
	ToolchainDir string `env:"TOOLCHAIN_DIR" yaml:"toolchain_dir"`
	// ToolchainSearchPaths are probed in order; the first existing directory wins.
	ToolchainSearchPaths []string `env:"TOOLCHAIN_SEARCH_PATHS" envSeparator:":" yaml:"toolchain_search_paths"`
	DefaultToolchainDir  string   `env:"DEFAULT_TOOLCHAIN_DIR" envDefault:"/opt/locbuild/toolchain/bin" yaml:"default_toolchain_dir"`

	// ScriptTemplatePath is where the reusable build script template is
	// persisted. Empty means <user config dir>/locbuild/build.sh.tmpl.
	ScriptTemplatePath string `env:"SCRIPT_TEMPLATE" yaml:"script_template"`
	Shell              string `env:"SHELL"           envDefault:"sh" yaml:"shell"`

	ArtifactExtension string `env:"ARTIFACT_EXT"     envDefault:".dll" yaml:"artifact_extension"`
	IntermediateDir   string `env:"INTERMEDIATE_DIR" yaml:"intermediate_dir"`

	MarkupCompiler   string `env:"MARKUP_COMPILER"   envDefault:"uicc" yaml:"markup_compiler"`
	ResourceCompiler string `env:"RESOURCE_COMPILER" envDefault:"rc"   yaml:"resource_compiler"`
	Linker           string `env:"LINKER"            envDefault:"link" yaml:"linker"`
}

// FromEnv reads the configuration from LOCBUILD_* environment variables.
func FromEnv() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: envPrefix})
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Load reads the environment and, when path is non-empty, overlays the YAML
// file found there. Keys absent from the file keep their environment value.
func Load(path string) (Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration with every default applied and no
// environment influence.
func Default() Config {
	return Config{
		LogLevel:            "info",
		LogFormat:           "text",
		LogColored:          true,
		LogTimeFormat:       "15:04:05",
		DefaultToolchainDir: DefaultToolchainDir,
		Shell:               "sh",
		ArtifactExtension:   ".dll",
		MarkupCompiler:      "uicc",
		ResourceCompiler:    "rc",
		Linker:              "link",
	}
}

// ScriptTemplateFile returns the effective location of the persisted script
// template.
func (c Config) ScriptTemplateFile() (string, error) {
	if c.ScriptTemplatePath != "" {
		return c.ScriptTemplatePath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(dir, "locbuild", "build.sh.tmpl"), nil
}

// ResolveToolchainDir returns the installation-specific tool directory.
// An explicit ToolchainDir wins; otherwise the first existing search path is
// used; otherwise the configured (or built-in) default path string.
func (c Config) ResolveToolchainDir() string {
	if c.ToolchainDir != "" {
		return c.ToolchainDir
	}
	for _, p := range c.ToolchainSearchPaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	if c.DefaultToolchainDir != "" {
		return c.DefaultToolchainDir
	}
	return DefaultToolchainDir
}
