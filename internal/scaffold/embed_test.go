package scaffold

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/codeassist/internal/agent"
	"github.com/dusk-indust/codeassist/internal/config"
)

func TestFS_ContainsTemplates(t *testing.T) {
	var files []string
	err := fs.WalkDir(FS, Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, strings.TrimPrefix(path, Root+"/"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"codeassist.yml",
		"agents/debug.toml.example",
		"agents/refactor.toml.example",
	}, files)
}

func TestConfigTemplateLoads(t *testing.T) {
	data, err := FS.ReadFile(Root + "/codeassist.yml")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "codeassist.yml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.MaxFiles)
	assert.Equal(t, config.DefaultDocsDir, cfg.DocsDir)
}

func TestPluginExamplesDecode(t *testing.T) {
	dir := t.TempDir()
	for _, c := range []agent.Capability{agent.CapRefactor, agent.CapDebug} {
		data, err := FS.ReadFile(Root + "/agents/" + string(c) + ".toml.example")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(agent.DescriptorPath(dir, c), data, 0o644))

		d, err := agent.LoadPlugin(dir, c)
		require.NoError(t, err, c)
		assert.NotEmpty(t, d.Command)
		assert.Equal(t, "external-"+string(c), d.Name)
	}
}
