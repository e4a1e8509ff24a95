package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/htmlner"
)

type featureLine struct {
	Token    string             `json:"token"`
	Tag      htmlner.Tag        `json:"tag"`
	Features htmlner.FeatureMap `json:"features"`
}

// Run executes the features command.
func (c *FeaturesCmd) Run(deps *Dependencies) error {
	doc, err := prepareFile(deps, c.File)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", htmlner.ErrorMessage(err))
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetEscapeHTML(false)
	for i, tok := range doc.Tokens {
		line := featureLine{Token: tok.Text, Tag: doc.Tags[i], Features: doc.Features[i]}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}
