package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/htmlner"
	"github.com/fwojciec/htmlner/pipeline"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Config      *Config
	Pipeline    *pipeline.Pipeline
	Extractions htmlner.ExtractionService
	Fetcher     htmlner.Fetcher
	Limiter     htmlner.DomainLimiter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"C" type:"path" help:"Config file (default ./htmlner.toml if present)"`
	Verbose bool   `short:"v" help:"Log debug output"`

	Tokenize TokenizeCmd `cmd:"" help:"Show tokens and tags of an HTML file"`
	Features FeaturesCmd `cmd:"" help:"Print token features of an HTML file as JSON lines"`
	Train    TrainCmd    `cmd:"" help:"Train the model on annotated HTML files"`
	Extract  ExtractCmd  `cmd:"" help:"Extract entities from an HTML file or URL"`
	List     ListCmd     `cmd:"" help:"List stored extractions"`
	Delete   DeleteCmd   `cmd:"" help:"Delete a stored extraction"`
}

// TokenizeCmd is the "tokenize" subcommand.
type TokenizeCmd struct {
	File string `arg:"" type:"existingfile" help:"HTML file"`
}

// FeaturesCmd is the "features" subcommand.
type FeaturesCmd struct {
	File string `arg:"" type:"existingfile" help:"HTML file"`
}

// TrainCmd is the "train" subcommand.
type TrainCmd struct {
	Files []string `arg:"" help:"Annotated HTML files"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	Source string `arg:"" help:"HTML file path or http(s) URL"`
	Clean  string `enum:"none,readability,trafilatura" default:"none" help:"Strip boilerplate before extraction (none, readability, trafilatura)"`
	Save   bool   `short:"s" help:"Store the result in the database"`
	JSON   bool   `name:"json" help:"Print entities as JSON"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Label  string `short:"l" help:"Only extractions with an entity of this label"`
	Source string `help:"Only extractions of this source"`
	Limit  int    `short:"n" default:"50" help:"Maximum number of extractions"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID string `arg:"" help:"Extraction ID"`
}
