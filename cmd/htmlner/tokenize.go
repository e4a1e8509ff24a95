package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/fwojciec/htmlner"
	"github.com/fwojciec/htmlner/pipeline"
	"github.com/mattn/go-runewidth"
)

// maxTokenWidth caps the token column of the tokenize table.
const maxTokenWidth = 32

var (
	beginColor  = color.New(color.FgGreen, color.Bold)
	insideColor = color.New(color.FgGreen)
	parentColor = color.New(color.FgHiBlack)
)

// Run executes the tokenize command.
func (c *TokenizeCmd) Run(deps *Dependencies) error {
	doc, err := prepareFile(deps, c.File)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", htmlner.ErrorMessage(err))
		return err
	}

	width := 0
	for _, tok := range doc.Tokens {
		width = max(width, min(runewidth.StringWidth(tok.Text), maxTokenWidth))
	}

	for i, tok := range doc.Tokens {
		text := runewidth.Truncate(tok.Text, maxTokenWidth, "…")
		parent := ""
		if p := tok.Parent(); p != nil {
			parent = p.Data
		}
		fmt.Fprintf(deps.Stdout, "%6d  %s  %s  %s\n",
			tok.Position,
			runewidth.FillRight(text, width),
			colorTag(doc.Tags[i]),
			parentColor.Sprint(parent),
		)
	}
	return nil
}

func colorTag(tag htmlner.Tag) string {
	s := runewidth.FillRight(string(tag), 7)
	kind, _, err := tag.Split()
	if err != nil {
		return s
	}
	switch kind {
	case htmlner.KindBegin:
		return beginColor.Sprint(s)
	case htmlner.KindInside:
		return insideColor.Sprint(s)
	}
	return s
}

// prepareFile loads, tokenizes and featurizes a single file.
func prepareFile(deps *Dependencies, path string) (*pipeline.Document, error) {
	sources, err := pipeline.ReadFiles(path)
	if err != nil {
		return nil, err
	}
	corpus, err := deps.Pipeline.Prepare(deps.Ctx, sources)
	if err != nil {
		return nil, err
	}
	if len(corpus.Documents) == 0 {
		return nil, htmlner.Errorf(htmlner.EANNOTATION, "%s: document was skipped", path)
	}
	return corpus.Documents[0], nil
}
