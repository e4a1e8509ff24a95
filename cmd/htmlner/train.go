package main

import (
	"fmt"

	"github.com/fwojciec/htmlner"
	"github.com/fwojciec/htmlner/pipeline"
)

// Run executes the train command.
func (c *TrainCmd) Run(deps *Dependencies) error {
	sources, err := pipeline.ReadFiles(c.Files...)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", htmlner.ErrorMessage(err))
		return err
	}

	corpus, err := deps.Pipeline.Train(deps.Ctx, sources)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", htmlner.ErrorMessage(err))
		return err
	}

	tokens := 0
	for _, doc := range corpus.Documents {
		tokens += len(doc.Tokens)
	}
	fmt.Fprintf(deps.Stdout, "Trained on %d documents (%d tokens)\n", len(corpus.Documents), tokens)
	for _, name := range corpus.Skipped {
		fmt.Fprintf(deps.Stdout, "  skipped %s: malformed annotation\n", name)
	}
	for _, name := range corpus.Duplicates {
		fmt.Fprintf(deps.Stdout, "  skipped %s: duplicate content\n", name)
	}
	if deps.Config != nil {
		fmt.Fprintf(deps.Stdout, "Model saved to %s\n", deps.Config.Wapiti.Model)
	}
	return nil
}
