package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/htmlner"
	main "github.com/fwojciec/htmlner/cmd/htmlner"
	"github.com/fwojciec/htmlner/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeps(t *testing.T, model htmlner.Model) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	cfg := main.DefaultConfig()
	p, err := cfg.Pipeline(logger)
	require.NoError(t, err)
	p.Model = model

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &main.Dependencies{
		Ctx:      context.Background(),
		Stdout:   stdout,
		Stderr:   stderr,
		Logger:   logger,
		Config:   cfg,
		Pipeline: p,
	}, stdout, stderr
}

// personModel tags the second and third token of every sequence as a person.
func personModel() *mock.Model {
	return &mock.Model{
		PredictFn: func(_ context.Context, features [][]htmlner.FeatureMap) ([][]htmlner.Tag, error) {
			out := make([][]htmlner.Tag, len(features))
			for i, seq := range features {
				tags := make([]htmlner.Tag, len(seq))
				for j := range tags {
					switch j {
					case 1:
						tags[j] = htmlner.BeginTag("PER")
					case 2:
						tags[j] = htmlner.InsideTag("PER")
					default:
						tags[j] = htmlner.Outside
					}
				}
				out[i] = tags
			}
			return out, nil
		},
	}
}

func TestFeaturesCmd_Run(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "page.html", `<p>Hello <b>World</b></p>`)
	deps, stdout, _ := newDeps(t, nil)

	err := (&main.FeaturesCmd{File: path}).Run(deps)

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)

	var line struct {
		Token    string         `json:"token"`
		Tag      string         `json:"tag"`
		Features map[string]any `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &line))
	assert.Equal(t, "World", line.Token)
	assert.Equal(t, "O", line.Tag)
	assert.Equal(t, "world", line.Features["lower"])
	assert.Equal(t, "b", line.Features["parent_tag"])
}

func TestTrainCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("fits the model on annotated files", func(t *testing.T) {
		t.Parallel()

		var fitTags [][]htmlner.Tag
		model := &mock.Model{
			FitFn: func(_ context.Context, _ [][]htmlner.FeatureMap, tags [][]htmlner.Tag) error {
				fitTags = tags
				return nil
			},
		}
		a := writeFile(t, "a.html", `<p>Hello __START_PER__John__END_PER__</p>`)
		b := writeFile(t, "b.html", `<p>Hello __START_PER__John__END_PER__</p>`)
		deps, stdout, _ := newDeps(t, model)

		err := (&main.TrainCmd{Files: []string{a, b}}).Run(deps)

		require.NoError(t, err)
		require.Len(t, fitTags, 1)
		assert.Equal(t, []htmlner.Tag{htmlner.Outside, htmlner.BeginTag("PER")}, fitTags[0])
		assert.Contains(t, stdout.String(), "Trained on 1 documents (2 tokens)")
		assert.Contains(t, stdout.String(), "duplicate content")
	})

	t.Run("reports malformed annotations", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "bad.html", `<p>__START_PER__John</p>`)
		deps, _, stderr := newDeps(t, &mock.Model{})

		err := (&main.TrainCmd{Files: []string{path}}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, htmlner.EANNOTATION, htmlner.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error:")
	})
}

func TestExtractCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints entities", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "page.html", `<p>Hello John <i>Smith</i> today</p>`)
		deps, stdout, _ := newDeps(t, personModel())

		err := (&main.ExtractCmd{Source: path, Clean: "none"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "PER\tJohn Smith\n", stdout.String())
	})

	t.Run("prints JSON and saves", func(t *testing.T) {
		t.Parallel()

		var saved *htmlner.Extraction
		extractions := &mock.ExtractionService{
			CreateExtractionFn: func(_ context.Context, e *htmlner.Extraction) error {
				e.ID = "ext-1"
				saved = e
				return nil
			},
		}
		path := writeFile(t, "page.html", `<p>Hello Mary Jones</p>`)
		deps, stdout, _ := newDeps(t, personModel())
		deps.Extractions = extractions

		err := (&main.ExtractCmd{Source: path, Clean: "none", Save: true, JSON: true}).Run(deps)

		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, path, saved.Source)
		assert.NotEmpty(t, saved.ContentHash)
		require.Len(t, saved.Entities, 1)
		assert.Equal(t, "Mary Jones", saved.Entities[0].Text)

		var out struct {
			ID       string           `json:"id"`
			Source   string           `json:"source"`
			Entities []htmlner.Entity `json:"entities"`
		}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
		assert.Equal(t, "ext-1", out.ID)
		require.Len(t, out.Entities, 1)
		assert.Equal(t, "PER", out.Entities[0].Label)
	})

	t.Run("fetches URLs", func(t *testing.T) {
		t.Parallel()

		var fetched string
		deps, stdout, _ := newDeps(t, personModel())
		deps.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				fetched = url
				return `<p>Hi Ada Lovelace</p>`, nil
			},
		}

		err := (&main.ExtractCmd{Source: "https://example.com/ada", Clean: "none"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/ada", fetched)
		assert.Contains(t, stdout.String(), "Ada Lovelace")
	})

	t.Run("reports model errors", func(t *testing.T) {
		t.Parallel()

		model := &mock.Model{
			PredictFn: func(context.Context, [][]htmlner.FeatureMap) ([][]htmlner.Tag, error) {
				return nil, htmlner.Errorf(htmlner.ENOTFOUND, "model not trained")
			},
		}
		path := writeFile(t, "page.html", `<p>Hello</p>`)
		deps, _, stderr := newDeps(t, model)

		err := (&main.ExtractCmd{Source: path, Clean: "none"}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, "error: model not trained\n", stderr.String())
	})
}

func TestListCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists extractions", func(t *testing.T) {
		t.Parallel()

		var gotFilter htmlner.ExtractionFilter
		extractions := &mock.ExtractionService{
			FindExtractionsFn: func(_ context.Context, filter htmlner.ExtractionFilter) ([]*htmlner.Extraction, error) {
				gotFilter = filter
				return []*htmlner.Extraction{{
					ID:        "ext-1",
					Source:    "page.html",
					Entities:  []htmlner.Entity{{Label: "PER", Text: "John"}},
					CreatedAt: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
				}}, nil
			},
		}
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:         context.Background(),
			Stdout:      stdout,
			Stderr:      &bytes.Buffer{},
			Extractions: extractions,
		}

		err := (&main.ListCmd{Label: "PER", Limit: 10}).Run(deps)

		require.NoError(t, err)
		require.NotNil(t, gotFilter.Label)
		assert.Equal(t, "PER", *gotFilter.Label)
		assert.Nil(t, gotFilter.Source)
		assert.Equal(t, 10, gotFilter.Limit)
		assert.Equal(t, "ext-1  2025-01-15T10:00:00Z  page.html  1 entities\n", stdout.String())
	})

	t.Run("reports service errors", func(t *testing.T) {
		t.Parallel()

		extractions := &mock.ExtractionService{
			FindExtractionsFn: func(context.Context, htmlner.ExtractionFilter) ([]*htmlner.Extraction, error) {
				return nil, errors.New("disk on fire")
			},
		}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:         context.Background(),
			Stdout:      &bytes.Buffer{},
			Stderr:      stderr,
			Extractions: extractions,
		}

		err := (&main.ListCmd{}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, "error: Internal error.\n", stderr.String())
	})
}

func TestDeleteCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("deletes by ID", func(t *testing.T) {
		t.Parallel()

		var deleted string
		extractions := &mock.ExtractionService{
			DeleteExtractionFn: func(_ context.Context, id string) error {
				deleted = id
				return nil
			},
		}
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:         context.Background(),
			Stdout:      stdout,
			Stderr:      &bytes.Buffer{},
			Extractions: extractions,
		}

		err := (&main.DeleteCmd{ID: "ext-1"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "ext-1", deleted)
		assert.Contains(t, stdout.String(), "Deleted extraction ext-1")
	})

	t.Run("reports missing extraction", func(t *testing.T) {
		t.Parallel()

		extractions := &mock.ExtractionService{
			DeleteExtractionFn: func(context.Context, string) error {
				return htmlner.Errorf(htmlner.ENOTFOUND, "extraction not found")
			},
		}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:         context.Background(),
			Stdout:      &bytes.Buffer{},
			Stderr:      stderr,
			Extractions: extractions,
		}

		err := (&main.DeleteCmd{ID: "nope"}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, htmlner.ENOTFOUND, htmlner.ErrorCode(err))
		assert.Contains(t, stderr.String(), `extraction "nope" not found`)
	})
}
