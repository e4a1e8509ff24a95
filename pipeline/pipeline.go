// Package pipeline runs the load, tokenize, featurize and model steps over
// batches of HTML sources.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/htmlner"
	"github.com/fwojciec/htmlner/bloom"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when Pipeline.Concurrency is not positive.
const DefaultConcurrency = 4

// Source is one raw HTML input.
type Source struct {
	// Name identifies the source, usually a file path or URL.
	Name string
	Data []byte
}

// Document is a prepared source: its tokens, tags and feature mappings.
type Document struct {
	*htmlner.Document

	Source   string
	Hash     string
	Features []htmlner.FeatureMap
}

// Corpus is the result of preparing a batch of sources.
type Corpus struct {
	// Documents are the prepared sources in input order.
	Documents []*Document

	// Skipped names sources dropped for malformed annotations.
	Skipped []string

	// Duplicates names sources whose content repeats an earlier source.
	Duplicates []string
}

// Result holds the entities extracted from one document.
type Result struct {
	Source   string
	Hash     string
	Document *htmlner.Document
	Tags     []htmlner.Tag
	Entities []htmlner.Entity
}

// Pipeline connects a loader, a tree tokenizer, a feature extractor and a
// model. Policy must be set explicitly before extracting entities.
type Pipeline struct {
	Loader    htmlner.Loader
	Tokenizer htmlner.TreeTokenizer
	Features  *htmlner.FeatureExtractor
	Model     htmlner.Model
	Policy    htmlner.OrphanPolicy

	// Cleaner, when set, strips boilerplate from sources before loading.
	Cleaner htmlner.Cleaner

	Concurrency int

	// RetryDelays are the waits between fetch attempts. Nil fetches once.
	RetryDelays []time.Duration

	// SkipMalformed drops documents with malformed annotations instead of
	// failing the batch.
	SkipMalformed bool

	Logger *slog.Logger
}

// ReadFiles reads sources from files.
func ReadFiles(paths ...string) ([]Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		sources = append(sources, Source{Name: p, Data: data})
	}
	return sources, nil
}

// Prepare loads, tokenizes and featurizes sources concurrently. Documents
// keep input order. Sources with the same content are prepared once.
// A malformed annotation fails the batch unless SkipMalformed is set.
func (p *Pipeline) Prepare(ctx context.Context, sources []Source) (*Corpus, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	corpus := &Corpus{}
	seen := bloom.NewFilter(uint(len(sources)), 0.01)
	var unique []Source
	var hashes []uint64
	for _, src := range sources {
		h := xxhash.Sum64(src.Data)
		if _, dup := seen.Add(h, len(unique)); dup {
			corpus.Duplicates = append(corpus.Duplicates, src.Name)
			continue
		}
		unique = append(unique, src)
		hashes = append(hashes, h)
	}

	docs := make([]*Document, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())
	for i, src := range unique {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := p.prepare(src)
			if err != nil {
				if p.SkipMalformed && malformed(err) {
					p.logger().Warn("skipping document", "source", src.Name, "err", err)
					return nil
				}
				return fmt.Errorf("%s: %w", src.Name, err)
			}
			doc.Hash = strconv.FormatUint(hashes[i], 16)
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, doc := range docs {
		if doc == nil {
			corpus.Skipped = append(corpus.Skipped, unique[i].Name)
			continue
		}
		corpus.Documents = append(corpus.Documents, doc)
	}
	return corpus, nil
}

// Train prepares sources and fits the model on the resulting corpus.
func (p *Pipeline) Train(ctx context.Context, sources []Source) (*Corpus, error) {
	if p.Model == nil {
		return nil, htmlner.Errorf(htmlner.EINVALID, "pipeline has no model")
	}
	corpus, err := p.Prepare(ctx, sources)
	if err != nil {
		return nil, err
	}
	if len(corpus.Documents) == 0 {
		return nil, htmlner.Errorf(htmlner.EINVALID, "no documents to train on")
	}

	features := make([][]htmlner.FeatureMap, len(corpus.Documents))
	tags := make([][]htmlner.Tag, len(corpus.Documents))
	for i, doc := range corpus.Documents {
		features[i] = doc.Features
		tags[i] = doc.Tags
	}
	if err := p.Model.Fit(ctx, features, tags); err != nil {
		return nil, err
	}
	return corpus, nil
}

// Extract predicts tags for a single source and reconstructs its entities.
func (p *Pipeline) Extract(ctx context.Context, src Source) (*Result, error) {
	results, err := p.ExtractAll(ctx, []Source{src})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, htmlner.Errorf(htmlner.EANNOTATION, "%s: document was skipped", src.Name)
	}
	return results[0], nil
}

// ExtractAll predicts tags for sources and reconstructs their entities.
// Results follow the order of the prepared documents; skipped and duplicate
// sources have no result. Returns ELENGTH if the model returns a tag
// sequence whose length differs from its document's.
func (p *Pipeline) ExtractAll(ctx context.Context, sources []Source) ([]*Result, error) {
	if p.Model == nil {
		return nil, htmlner.Errorf(htmlner.EINVALID, "pipeline has no model")
	}
	if err := p.Policy.Validate(); err != nil {
		return nil, err
	}
	corpus, err := p.Prepare(ctx, sources)
	if err != nil {
		return nil, err
	}

	features := make([][]htmlner.FeatureMap, len(corpus.Documents))
	for i, doc := range corpus.Documents {
		features[i] = doc.Features
	}
	predicted, err := p.Model.Predict(ctx, features)
	if err != nil {
		return nil, err
	}
	if len(predicted) != len(corpus.Documents) {
		return nil, htmlner.Errorf(htmlner.ELENGTH, "model returned %d tag sequences for %d documents", len(predicted), len(corpus.Documents))
	}

	results := make([]*Result, len(corpus.Documents))
	for i, doc := range corpus.Documents {
		entities, err := htmlner.ExtractEntities(doc.Tokens, predicted[i], p.Policy)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Source, err)
		}
		results[i] = &Result{
			Source:   doc.Source,
			Hash:     doc.Hash,
			Document: doc.Document,
			Tags:     predicted[i],
			Entities: entities,
		}
	}
	return results, nil
}

func (p *Pipeline) prepare(src Source) (*Document, error) {
	data := src.Data
	if p.Cleaner != nil {
		cleaned, err := p.Cleaner.Clean(string(data))
		if err != nil {
			return nil, err
		}
		data = []byte(cleaned)
	}

	root, err := p.Loader.Load(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	doc, err := p.Tokenizer.Tokenize(root)
	if err != nil {
		return nil, err
	}
	features, err := p.Features.ExtractDocument(doc)
	if err != nil {
		return nil, err
	}
	return &Document{
		Document: doc,
		Source:   src.Name,
		Features: features,
	}, nil
}

func (p *Pipeline) validate() error {
	switch {
	case p.Loader == nil:
		return htmlner.Errorf(htmlner.EINVALID, "pipeline has no loader")
	case p.Tokenizer == nil:
		return htmlner.Errorf(htmlner.EINVALID, "pipeline has no tokenizer")
	case p.Features == nil:
		return htmlner.Errorf(htmlner.EINVALID, "pipeline has no feature extractor")
	}
	return nil
}

func (p *Pipeline) concurrency() int {
	if p.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return p.Concurrency
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

func malformed(err error) bool {
	switch htmlner.ErrorCode(err) {
	case htmlner.EANNOTATION, htmlner.ETAG:
		return true
	}
	return false
}
