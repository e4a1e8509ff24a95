package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/htmlner"
	"github.com/fwojciec/htmlner/pipeline"
	"github.com/fwojciec/htmlner/readability"
	"github.com/fwojciec/htmlner/trafilatura"
)

type extractOutput struct {
	ID       string           `json:"id,omitempty"`
	Source   string           `json:"source"`
	Hash     string           `json:"hash"`
	Entities []htmlner.Entity `json:"entities"`
}

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	switch c.Clean {
	case "readability":
		deps.Pipeline.Cleaner = readability.NewCleaner()
	case "trafilatura":
		deps.Pipeline.Cleaner = trafilatura.NewCleaner()
	}

	src, err := c.source(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", htmlner.ErrorMessage(err))
		return err
	}

	result, err := deps.Pipeline.Extract(deps.Ctx, src)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", htmlner.ErrorMessage(err))
		return err
	}

	out := extractOutput{
		Source:   result.Source,
		Hash:     result.Hash,
		Entities: result.Entities,
	}
	if out.Entities == nil {
		out.Entities = []htmlner.Entity{}
	}

	if c.Save {
		ext := &htmlner.Extraction{
			Source:      result.Source,
			ContentHash: result.Hash,
			Entities:    result.Entities,
		}
		if err := deps.Extractions.CreateExtraction(deps.Ctx, ext); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", htmlner.ErrorMessage(err))
			return err
		}
		out.ID = ext.ID
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(out.Entities) == 0 {
		fmt.Fprintln(deps.Stdout, "No entities found.")
	}
	for _, ent := range out.Entities {
		fmt.Fprintf(deps.Stdout, "%s\t%s\n", ent.Label, ent.Text)
	}
	if out.ID != "" {
		fmt.Fprintf(deps.Stdout, "Saved extraction %s\n", out.ID)
	}
	return nil
}

func (c *ExtractCmd) source(deps *Dependencies) (pipeline.Source, error) {
	if strings.HasPrefix(c.Source, "http://") || strings.HasPrefix(c.Source, "https://") {
		sources, err := deps.Pipeline.FetchSources(deps.Ctx, deps.Fetcher, deps.Limiter, []string{c.Source})
		if err != nil {
			return pipeline.Source{}, err
		}
		return sources[0], nil
	}
	sources, err := pipeline.ReadFiles(c.Source)
	if err != nil {
		return pipeline.Source{}, err
	}
	return sources[0], nil
}
