// Package wapiti implements htmlner.Model on top of the wapiti CRF
// command line tool.
package wapiti

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fwojciec/htmlner"
)

// Ensure Model implements htmlner.Model at compile time.
var _ htmlner.Model = (*Model)(nil)

// DefaultTrainArgs are passed to "wapiti train" unless overridden.
var DefaultTrainArgs = []string{
	"--algo", "l-bfgs",
	"--maxiter", "100",
	"--compact",
	"--nthread", "8",
	"--jobsize", "1",
	"--stopwin", "15",
}

// Model is a CRF stored in a wapiti model file. The feature columns used for
// training are saved next to it with a ".columns" suffix, so prediction
// encodes features the same way.
//
// Predict may be called concurrently; Fit must not run concurrently with
// other calls.
type Model struct {
	path      string
	binary    string
	template  string
	trainArgs []string
}

// Option configures a Model.
type Option func(*Model)

// WithBinary sets the wapiti executable. Defaults to "wapiti" on PATH.
func WithBinary(path string) Option {
	return func(m *Model) {
		m.binary = path
	}
}

// WithTemplate sets the feature template passed to wapiti with -p.
func WithTemplate(tpl string) Option {
	return func(m *Model) {
		m.template = tpl
	}
}

// WithTrainArgs replaces DefaultTrainArgs.
func WithTrainArgs(args ...string) Option {
	return func(m *Model) {
		m.trainArgs = args
	}
}

// NewModel returns a Model stored at path.
func NewModel(path string, opts ...Option) *Model {
	m := &Model{
		path:      path,
		binary:    "wapiti",
		trainArgs: DefaultTrainArgs,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the model file path.
func (m *Model) Path() string {
	return m.path
}

// ColumnsPath returns the path of the saved feature columns.
func (m *Model) ColumnsPath() string {
	return m.path + ".columns"
}

// Fit trains the model and saves it together with its feature columns.
func (m *Model) Fit(ctx context.Context, features [][]htmlner.FeatureMap, tags [][]htmlner.Tag) error {
	if err := htmlner.CheckAligned(features, tags); err != nil {
		return err
	}
	if len(features) == 0 {
		return htmlner.Errorf(htmlner.EINVALID, "no training sequences")
	}

	dir, err := os.MkdirTemp("", "htmlner-wapiti-*")
	if err != nil {
		return fmt.Errorf("create wapiti work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	columns := Columns(features)
	if len(columns) == 0 {
		return htmlner.Errorf(htmlner.EINVALID, "no features to train on")
	}
	train := filepath.Join(dir, "train.txt")
	if err := writeFile(train, columns, features, tags); err != nil {
		return err
	}

	args := append([]string{"train"}, m.trainArgs...)
	if m.template != "" {
		tpl := filepath.Join(dir, "template.txt")
		if err := os.WriteFile(tpl, []byte(m.template), 0o644); err != nil {
			return fmt.Errorf("write wapiti template: %w", err)
		}
		args = append(args, "-p", tpl)
	}
	args = append(args, train, m.path)

	if err := m.run(ctx, args...); err != nil {
		return err
	}

	data := strings.Join(columns, "\n") + "\n"
	if err := os.WriteFile(m.ColumnsPath(), []byte(data), 0o644); err != nil {
		return fmt.Errorf("write feature columns: %w", err)
	}
	return nil
}

// Predict labels each feature sequence with the trained model.
// Returns ENOTFOUND if the model has not been trained.
func (m *Model) Predict(ctx context.Context, features [][]htmlner.FeatureMap) ([][]htmlner.Tag, error) {
	columns, err := m.columns()
	if err != nil {
		return nil, err
	}

	// wapiti drops empty sequences, so only non-empty ones are sent.
	var idx []int
	var input [][]htmlner.FeatureMap
	for i, seq := range features {
		if len(seq) > 0 {
			idx = append(idx, i)
			input = append(input, seq)
		}
	}

	out := make([][]htmlner.Tag, len(features))
	for i := range out {
		out[i] = []htmlner.Tag{}
	}
	if len(input) == 0 {
		return out, nil
	}

	dir, err := os.MkdirTemp("", "htmlner-wapiti-*")
	if err != nil {
		return nil, fmt.Errorf("create wapiti work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input.txt")
	result := filepath.Join(dir, "output.txt")
	if err := writeFile(in, columns, input, nil); err != nil {
		return nil, err
	}
	if err := m.run(ctx, "label", "-m", m.path, in, result); err != nil {
		return nil, err
	}

	f, err := os.Open(result)
	if err != nil {
		return nil, fmt.Errorf("open wapiti output: %w", err)
	}
	defer f.Close()

	tags, err := Decode(f)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(input) {
		return nil, htmlner.Errorf(htmlner.ELENGTH, "wapiti returned %d sequences for %d inputs", len(tags), len(input))
	}
	for k, i := range idx {
		if len(tags[k]) != len(features[i]) {
			return nil, htmlner.Errorf(htmlner.ELENGTH, "document %d: wapiti returned %d tags for %d tokens", i, len(tags[k]), len(features[i]))
		}
		out[i] = tags[k]
	}
	return out, nil
}

func (m *Model) columns() ([]string, error) {
	data, err := os.ReadFile(m.ColumnsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, htmlner.Errorf(htmlner.ENOTFOUND, "model %s is not trained", m.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read feature columns: %w", err)
	}
	var cols []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			cols = append(cols, line)
		}
	}
	return cols, nil
}

func (m *Model) run(ctx context.Context, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("wapiti %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func writeFile(path string, columns []string, features [][]htmlner.FeatureMap, tags [][]htmlner.Tag) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wapiti input: %w", err)
	}
	if err := Encode(f, columns, features, tags); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write wapiti input: %w", err)
	}
	return nil
}
