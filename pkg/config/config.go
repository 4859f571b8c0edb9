package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/srcprune/pkg/archiveindex"
	"github.com/fulmenhq/srcprune/pkg/formats/mdl"
	"github.com/fulmenhq/srcprune/pkg/mapcontent"
	"github.com/fulmenhq/srcprune/pkg/refgraph"
	"github.com/fulmenhq/srcprune/pkg/safeio"
)

// Config holds all configuration for srcprune
type Config struct {
	Content  ContentConfig  `mapstructure:"content"`
	Scripts  ScriptsConfig  `mapstructure:"scripts"`
	Models   ModelsConfig   `mapstructure:"models"`
	Archives ArchivesConfig `mapstructure:"archives"`
	Maps     MapsConfig     `mapstructure:"maps"`
	Report   ReportConfig   `mapstructure:"report"`
}

// ContentConfig controls the content root walk
type ContentConfig struct {
	SkipDirs []string `mapstructure:"skip_dirs"`
}

// ScriptsConfig selects the files whose text decides which models are used
type ScriptsConfig struct {
	Patterns []string `mapstructure:"patterns"`
}

// ModelsConfig holds model file extension lists
type ModelsConfig struct {
	CompanionExts []string `mapstructure:"companion_exts"`
	LegacyVTXExts []string `mapstructure:"legacy_vtx_exts"`
}

// ArchivesConfig controls archive discovery under a game root. SkipDirs
// applies to the game root only.
type ArchivesConfig struct {
	Patterns []string `mapstructure:"patterns"`
	SkipDirs []string `mapstructure:"skip_dirs"`
}

// MapsConfig holds map-content options
type MapsConfig struct {
	NodrawMaterial string `mapstructure:"nodraw_material"`
}

// ReportConfig holds output options
type ReportConfig struct {
	Format string `mapstructure:"format"` // "text", "json", "yaml"
}

// ReportFormats lists the accepted report.format values
var ReportFormats = []string{"text", "json", "yaml"}

// ProjectFiles are the per-content-root config names, first match wins
var ProjectFiles = []string{".srcprune.yaml", ".srcprune.yml", "srcprune.yaml"}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Content: ContentConfig{SkipDirs: []string{".git", "__MACOSX"}},
		Scripts: ScriptsConfig{Patterns: refgraph.DefaultScriptPatterns},
		Models: ModelsConfig{
			CompanionExts: mdl.CompanionExts,
			LegacyVTXExts: mdl.LegacyVTXExts,
		},
		Archives: ArchivesConfig{
			Patterns: archiveindex.DefaultPatterns,
			SkipDirs: []string{".git", "__MACOSX"},
		},
		Maps:   MapsConfig{NodrawMaterial: mapcontent.DefaultNodrawMaterial},
		Report: ReportConfig{Format: "text"},
	}
}

// Options configures Load
type Options struct {
	// ProjectDir is searched for a project config file; usually the
	// content root. Empty skips the project layer.
	ProjectDir string
	// SearchPaths overrides the user config search path
	SearchPaths []string
}

// Error is a configuration failure
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsConfigError reports whether err is a configuration failure
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// UserConfigDir returns the srcprune directory under the XDG config home
func UserConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "srcprune")
}

// Loaded is a configuration together with the files it came from
type Loaded struct {
	Config
	UserFile    string
	ProjectFile string
}

// Load layers defaults, the user config file, the project config file and
// SRCPRUNE_* environment variables, in increasing precedence. The project
// file is validated against the embedded schema before it is merged.
func Load(opts Options) (*Loaded, error) {
	v := viper.New()
	setDefaults(v, Default())

	// Configuration file search paths
	v.SetConfigName("srcprune")
	v.SetConfigType("yaml")
	paths := opts.SearchPaths
	if paths == nil {
		paths = []string{".", "$HOME", UserConfigDir()}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variables
	v.SetEnvPrefix("SRCPRUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &Error{Path: v.ConfigFileUsed(), Err: err}
		}
	}
	out := &Loaded{UserFile: v.ConfigFileUsed()}

	if opts.ProjectDir != "" {
		path, data, err := readProjectFile(opts.ProjectDir)
		if err != nil {
			return nil, &Error{Path: path, Err: err}
		}
		if path != "" {
			if err := ValidateConfig(data); err != nil {
				return nil, &Error{Path: path, Err: err}
			}
			var m map[string]interface{}
			if err := yaml.Unmarshal(data, &m); err != nil {
				return nil, &Error{Path: path, Err: err}
			}
			if err := v.MergeConfigMap(m); err != nil {
				return nil, &Error{Path: path, Err: err}
			}
			out.ProjectFile = path
		}
	}

	if err := v.Unmarshal(&out.Config); err != nil {
		return nil, &Error{Err: fmt.Errorf("error unmarshaling config: %v", err)}
	}
	if err := out.Validate(); err != nil {
		return nil, &Error{Path: out.ProjectFile, Err: err}
	}
	return out, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("content.skip_dirs", d.Content.SkipDirs)
	v.SetDefault("scripts.patterns", d.Scripts.Patterns)
	v.SetDefault("models.companion_exts", d.Models.CompanionExts)
	v.SetDefault("models.legacy_vtx_exts", d.Models.LegacyVTXExts)
	v.SetDefault("archives.patterns", d.Archives.Patterns)
	v.SetDefault("archives.skip_dirs", d.Archives.SkipDirs)
	v.SetDefault("maps.nodraw_material", d.Maps.NodrawMaterial)
	v.SetDefault("report.format", d.Report.Format)
}

// readProjectFile returns the first project config file in dir, or empty
// results when there is none.
func readProjectFile(dir string) (string, []byte, error) {
	for _, name := range ProjectFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		data, err := safeio.ReadFileContained(dir, path)
		if err != nil {
			return path, nil, err
		}
		return path, data, nil
	}
	return "", nil, nil
}

// Validate checks values the schema cannot see, such as environment
// overrides.
func (c *Config) Validate() error {
	ok := false
	for _, f := range ReportFormats {
		if c.Report.Format == f {
			ok = true
		}
	}
	if !ok {
		return fmt.Errorf("report.format must be one of %s, got %q", strings.Join(ReportFormats, ", "), c.Report.Format)
	}
	if len(c.Scripts.Patterns) == 0 {
		return errors.New("scripts.patterns must not be empty")
	}
	return nil
}
