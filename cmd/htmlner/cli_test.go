package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	main "github.com/fwojciec/htmlner/cmd/htmlner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLI_HelpShowsAllCommands(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	parser, err := kong.New(cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"--help"})

	helpOutput := stdout.String()
	for _, cmd := range []string{"tokenize", "features", "train", "extract", "list", "delete"} {
		assert.Contains(t, helpOutput, cmd, "Help should mention %s command", cmd)
	}
}

func TestCLI_ExtractFlags(t *testing.T) {
	t.Parallel()

	t.Run("defaults clean to none", func(t *testing.T) {
		t.Parallel()

		cli := &main.CLI{}
		parser, err := kong.New(cli, kong.Exit(func(int) {}))
		require.NoError(t, err)

		_, err = parser.Parse([]string{"extract", "page.html"})
		require.NoError(t, err)

		assert.Equal(t, "page.html", cli.Extract.Source)
		assert.Equal(t, "none", cli.Extract.Clean)
		assert.False(t, cli.Extract.Save)
	})

	t.Run("rejects unknown cleaner", func(t *testing.T) {
		t.Parallel()

		cli := &main.CLI{}
		parser, err := kong.New(cli,
			kong.Writers(&bytes.Buffer{}, &bytes.Buffer{}),
			kong.Exit(func(int) {}),
		)
		require.NoError(t, err)

		_, err = parser.Parse([]string{"extract", "--clean", "magic", "page.html"})
		assert.Error(t, err)
	})
}

func TestMain_Run(t *testing.T) {
	t.Parallel()

	t.Run("no command prints help and fails", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		m := &main.Main{DBPath: filepath.Join(t.TempDir(), "test.db")}

		err := m.Run(context.Background(), nil, stdout, &bytes.Buffer{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no command specified")
		assert.Contains(t, stdout.String(), "tokenize")
	})

	t.Run("help succeeds", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		m := &main.Main{DBPath: filepath.Join(t.TempDir(), "test.db")}

		err := m.Run(context.Background(), []string{"--help"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "extract")
	})

	t.Run("tokenizes an annotated file", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "page.html", `<p>Hello __START_PER__John Smith__END_PER__ !</p>`)
		stdout := &bytes.Buffer{}
		m := &main.Main{DBPath: filepath.Join(t.TempDir(), "test.db")}

		err := m.Run(context.Background(), []string{"tokenize", path}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		out := stdout.String()
		assert.Contains(t, out, "Hello")
		assert.Contains(t, out, "B-PER")
		assert.Contains(t, out, "I-PER")
		assert.NotContains(t, out, "__START_PER__")
		assert.Nil(t, m.DB, "tokenize should not open the database")
	})

	t.Run("uses the config file format", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		page := filepath.Join(dir, "page.html")
		require.NoError(t, os.WriteFile(page, []byte(`<p>Visit <city>Paris</city></p>`), 0o644))
		config := filepath.Join(dir, "htmlner.toml")
		require.NoError(t, os.WriteFile(config, []byte("format = \"gate\"\nlabels = [\"city\"]\n"), 0o644))

		stdout := &bytes.Buffer{}
		m := &main.Main{DBPath: filepath.Join(dir, "test.db")}

		err := m.Run(context.Background(), []string{"--config", config, "tokenize", page}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "B-CITY")
	})

	t.Run("reports invalid config", func(t *testing.T) {
		t.Parallel()

		config := writeFile(t, "htmlner.toml", "format = \"pdf\"\n")
		page := writeFile(t, "page.html", "<p>x</p>")
		stderr := &bytes.Buffer{}
		m := &main.Main{DBPath: filepath.Join(t.TempDir(), "test.db")}

		err := m.Run(context.Background(), []string{"-C", config, "tokenize", page}, &bytes.Buffer{}, stderr)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "unknown format")
	})

	t.Run("lists and deletes against a database", func(t *testing.T) {
		t.Parallel()

		dbPath := filepath.Join(t.TempDir(), "test.db")

		stdout := &bytes.Buffer{}
		m := &main.Main{DBPath: dbPath}
		err := m.Run(context.Background(), []string{"list"}, stdout, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No extractions found")

		stderr := &bytes.Buffer{}
		m = &main.Main{DBPath: dbPath}
		err = m.Run(context.Background(), []string{"delete", "missing"}, &bytes.Buffer{}, stderr)
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "not found")
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
