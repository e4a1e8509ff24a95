package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/fwojciec/htmlner"
	"github.com/fwojciec/htmlner/features"
	"github.com/fwojciec/htmlner/goquery"
	"github.com/fwojciec/htmlner/htmltree"
	"github.com/fwojciec/htmlner/pipeline"
	nerslog "github.com/fwojciec/htmlner/slog"
	"github.com/fwojciec/htmlner/tokenize"
	"github.com/fwojciec/htmlner/wapiti"
)

// DefaultConfigFile is read from the working directory when --config is
// not given.
const DefaultConfigFile = "htmlner.toml"

// Config is the TOML configuration file.
type Config struct {
	// Labels restricts annotation labels. Required for the gate format.
	Labels []string `toml:"labels"`

	// Format is the annotation format of input files: html, gate or
	// webannotator.
	Format string `toml:"format"`

	// Orphans is the orphan I- tag policy: lenient or strict.
	Orphans string `toml:"orphans"`

	SkipMalformed bool   `toml:"skip_malformed"`
	Concurrency   int    `toml:"concurrency"`
	Database      string `toml:"database"`

	Wapiti WapitiConfig `toml:"wapiti"`

	// Gazetteers maps feature names to files with one entry per line.
	Gazetteers map[string]string `toml:"gazetteers"`

	// Selectors maps feature names to CSS selectors.
	Selectors map[string]string `toml:"selectors"`
}

// WapitiConfig configures the wapiti model.
type WapitiConfig struct {
	Binary    string   `toml:"binary"`
	Model     string   `toml:"model"`
	Template  string   `toml:"template"`
	TrainArgs []string `toml:"train_args"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Format:      "html",
		Orphans:     "lenient",
		Concurrency: pipeline.DefaultConcurrency,
		Wapiti: WapitiConfig{
			Binary: "wapiti",
			Model:  "model.wapiti",
		},
	}
}

// LoadConfig reads path over the defaults. An empty path reads
// DefaultConfigFile if it exists.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		path = DefaultConfigFile
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, htmlner.Errorf(htmlner.EINVALID, "invalid config %s: %v", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, htmlner.Errorf(htmlner.EINVALID, "unknown config key %s in %s", undecoded[0], path)
	}

	// Paths in the file are relative to the file.
	dir := filepath.Dir(path)
	cfg.Wapiti.Model = resolve(dir, cfg.Wapiti.Model)
	cfg.Wapiti.Template = resolve(dir, cfg.Wapiti.Template)
	cfg.Database = resolve(dir, cfg.Database)
	for name, p := range cfg.Gazetteers {
		cfg.Gazetteers[name] = resolve(dir, p)
	}
	return cfg, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Policy returns the configured orphan policy.
func (c *Config) Policy() (htmlner.OrphanPolicy, error) {
	return htmlner.ParseOrphanPolicy(c.Orphans)
}

// Loader returns the loader for the configured format.
func (c *Config) Loader() (htmlner.Loader, error) {
	switch c.Format {
	case "", "html":
		return goquery.NewHTMLLoader(), nil
	case "webannotator":
		return goquery.NewWebAnnotatorLoader(), nil
	case "gate":
		return goquery.NewGateLoader(c.Labels...)
	default:
		return nil, htmlner.Errorf(htmlner.EINVALID, "unknown format %q (want html, gate or webannotator)", c.Format)
	}
}

// Features returns the default features extended with the configured
// gazetteers and selectors, in name order.
func (c *Config) Features() (*htmlner.FeatureExtractor, error) {
	list := features.Default()

	for _, name := range sortedKeys(c.Gazetteers) {
		f, err := os.Open(c.Gazetteers[name])
		if err != nil {
			return nil, htmlner.Errorf(htmlner.EINVALID, "gazetteer %s: %v", name, err)
		}
		entries, err := features.ReadGazetteer(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		list = append(list, features.Gazetteer(name, entries, c.textTokenizer()))
	}

	for _, name := range sortedKeys(c.Selectors) {
		f, err := features.Selector(name, c.Selectors[name])
		if err != nil {
			return nil, err
		}
		list = append(list, f)
	}

	var opts []htmlner.ExtractorOption
	if c.Wapiti.Template != "" {
		tpl, err := os.ReadFile(c.Wapiti.Template)
		if err != nil {
			return nil, htmlner.Errorf(htmlner.EINVALID, "wapiti template: %v", err)
		}
		opts = append(opts, htmlner.WithTemplate(string(tpl)))
	}
	return htmlner.NewFeatureExtractor(list, opts...)
}

// Pipeline builds a pipeline from the configuration. The model is left
// unset; commands that need one attach it.
func (c *Config) Pipeline(logger *slog.Logger) (*pipeline.Pipeline, error) {
	policy, err := c.Policy()
	if err != nil {
		return nil, err
	}
	loader, err := c.Loader()
	if err != nil {
		return nil, err
	}
	ex, err := c.Features()
	if err != nil {
		return nil, err
	}
	tokenizer := htmltree.NewTokenizer(
		htmltree.WithTextTokenizer(c.textTokenizer()),
		htmltree.WithLabels(c.Labels...),
	)
	return &pipeline.Pipeline{
		Loader:        nerslog.NewLoggingLoader(loader, logger),
		Tokenizer:     tokenizer,
		Features:      ex,
		Policy:        policy,
		Concurrency:   c.Concurrency,
		SkipMalformed: c.SkipMalformed,
		Logger:        logger,
	}, nil
}

// Model returns the wapiti model. The feature template attached to ex,
// if any, is passed to wapiti.
func (c *Config) Model(ex *htmlner.FeatureExtractor, logger *slog.Logger) htmlner.Model {
	opts := []wapiti.Option{wapiti.WithBinary(c.Wapiti.Binary)}
	if tpl := ex.Template(); tpl != "" {
		opts = append(opts, wapiti.WithTemplate(tpl))
	}
	if len(c.Wapiti.TrainArgs) > 0 {
		opts = append(opts, wapiti.WithTrainArgs(c.Wapiti.TrainArgs...))
	}
	return nerslog.NewLoggingModel(wapiti.NewModel(c.Wapiti.Model, opts...), logger)
}

// textTokenizer splits chunk text for the tree walker and gazetteer entries
// alike, so entries match the tokens they will be compared with.
func (c *Config) textTokenizer() htmlner.TextTokenizer {
	return tokenize.NewDefaultTokenizer()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
