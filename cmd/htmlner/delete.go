package main

import (
	"fmt"

	"github.com/fwojciec/htmlner"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if err := deps.Extractions.DeleteExtraction(deps.Ctx, c.ID); err != nil {
		if htmlner.ErrorCode(err) == htmlner.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: extraction %q not found. Use 'htmlner list' to see stored extractions.\n", c.ID)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", htmlner.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted extraction %s\n", c.ID)
	return nil
}
