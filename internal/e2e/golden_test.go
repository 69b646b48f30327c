//go:build e2e

package e2e

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "update golden files")

// goldenDir returns the path to the testdata/golden directory.
func goldenDir() string {
	return filepath.Join("..", "..", "testdata", "golden")
}

// goldenServices are the services whose envelopes are fully deterministic
// with the fallback agents.
var goldenServices = []string{"analysis", "refactoring", "debugging", "planning"}

// renderGolden runs svc over a fresh fixture copy and returns its envelope as
// indented JSON with the temp root replaced by a placeholder.
func renderGolden(t *testing.T, svc string) []byte {
	t.Helper()
	h := newHarness(t)
	res := h.run(t, svc)

	data, err := json.MarshalIndent(res.Envelope, "", "  ")
	require.NoError(t, err)

	root, err := json.Marshal(h.root)
	require.NoError(t, err)
	rootStr := strings.Trim(string(root), `"`)
	return append([]byte(strings.ReplaceAll(string(data), rootStr, "<root>")), '\n')
}

// TestGolden compares envelopes against golden files. If golden files do not
// exist, the test is skipped with a message to run with -update.
func TestGolden(t *testing.T) {
	for _, svc := range goldenServices {
		t.Run(svc, func(t *testing.T) {
			goldenPath := filepath.Join(goldenDir(), svc+".json")
			golden, err := os.ReadFile(goldenPath)
			if os.IsNotExist(err) {
				t.Skipf("golden file %s not found; run with -update to generate", goldenPath)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, string(golden), string(renderGolden(t, svc)),
				"envelope for %s does not match golden file", svc)
		})
	}
}

// TestUpdateGolden regenerates golden files from the current envelopes.
// Run with: go test -tags e2e -run TestUpdateGolden ./internal/e2e/ -update
func TestUpdateGolden(t *testing.T) {
	if !*update {
		t.Skip("skipping golden file update; run with -update flag")
	}

	require.NoError(t, os.MkdirAll(goldenDir(), 0o755))
	for _, svc := range goldenServices {
		path := filepath.Join(goldenDir(), svc+".json")
		require.NoError(t, os.WriteFile(path, renderGolden(t, svc), 0o644))
		t.Logf("updated %s", path)
	}
}
