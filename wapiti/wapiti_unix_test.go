//go:build unix

package wapiti_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/htmlner"
	"github.com/fwojciec/htmlner/wapiti"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWapiti copies training data to the model file and labels every
// token "O".
const fakeWapiti = `#!/bin/sh
cmd=$1
shift
case "$cmd" in
train)
	echo "$@" > "$WAPITI_ARGS"
	for a in "$@"; do prev=$last; last=$a; done
	cp "$prev" "$last"
	;;
label)
	awk '{ if (NF) print $0 "\tO"; else print "" }' "$3" > "$4"
	;;
*)
	echo "unknown command $cmd" >&2
	exit 2
	;;
esac
`

func setup(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "wapiti")
	require.NoError(t, os.WriteFile(bin, []byte(fakeWapiti), 0o755))
	return dir, bin
}

func TestModel(t *testing.T) {
	dir, bin := setup(t)
	argsFile := filepath.Join(dir, "args.txt")
	t.Setenv("WAPITI_ARGS", argsFile)

	path := filepath.Join(dir, "model.wapiti")
	model := wapiti.NewModel(path, wapiti.WithBinary(bin), wapiti.WithTemplate("U00:%x[0,0]\n"))

	t.Run("predict before training is not found", func(t *testing.T) {
		_, err := model.Predict(context.Background(), sampleFeatures())

		require.Error(t, err)
		assert.Equal(t, htmlner.ENOTFOUND, htmlner.ErrorCode(err))
	})

	t.Run("fit writes model and columns", func(t *testing.T) {
		err := model.Fit(context.Background(), sampleFeatures(), [][]htmlner.Tag{{"B-PER", "I-PER"}, {"B-ORG"}})
		require.NoError(t, err)

		trained, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(trained), "lower=john\tB-PER\n")

		columns, err := os.ReadFile(model.ColumnsPath())
		require.NoError(t, err)
		assert.Equal(t, "class\nisupper\nlength\nlower\n", string(columns))

		args, err := os.ReadFile(argsFile)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(args), "--algo l-bfgs --maxiter 100 --compact"))
		assert.Contains(t, string(args), " -p ")
	})

	t.Run("predict returns one tag per token", func(t *testing.T) {
		features := append(sampleFeatures(), []htmlner.FeatureMap{})

		tags, err := model.Predict(context.Background(), features)

		require.NoError(t, err)
		assert.Equal(t, [][]htmlner.Tag{{"O", "O"}, {"O"}, {}}, tags)
	})
}

func TestModel_Fit(t *testing.T) {
	t.Parallel()

	t.Run("rejects misaligned input", func(t *testing.T) {
		t.Parallel()

		model := wapiti.NewModel(filepath.Join(t.TempDir(), "m"))

		err := model.Fit(context.Background(), sampleFeatures(), [][]htmlner.Tag{{"O"}})

		require.Error(t, err)
		assert.Equal(t, htmlner.ELENGTH, htmlner.ErrorCode(err))
	})

	t.Run("reports binary failures", func(t *testing.T) {
		t.Parallel()

		dir, _ := setup(t)
		bin := filepath.Join(dir, "fail")
		require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho broken >&2\nexit 1\n"), 0o755))
		model := wapiti.NewModel(filepath.Join(dir, "m"), wapiti.WithBinary(bin))

		err := model.Fit(context.Background(), sampleFeatures(), [][]htmlner.Tag{{"B-PER", "I-PER"}, {"B-ORG"}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
		assert.Equal(t, htmlner.EINTERNAL, htmlner.ErrorCode(err))
	})
}
