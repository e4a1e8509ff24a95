package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/htmlner"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	filter := htmlner.ExtractionFilter{Limit: c.Limit}
	if c.Label != "" {
		filter.Label = &c.Label
	}
	if c.Source != "" {
		filter.Source = &c.Source
	}

	extractions, err := deps.Extractions.FindExtractions(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", htmlner.ErrorMessage(err))
		return err
	}

	if len(extractions) == 0 {
		fmt.Fprintln(deps.Stdout, "No extractions found. Use 'htmlner extract --save' to store one.")
		return nil
	}

	for _, ext := range extractions {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %d entities\n",
			ext.ID, ext.CreatedAt.Format(time.RFC3339), ext.Source, len(ext.Entities))
	}
	return nil
}
