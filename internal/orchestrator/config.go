package orchestrator

import "github.com/dusk-indust/codeassist/internal/discovery"

// Config holds runtime settings for the pipeline.
type Config struct {
	// MaxFiles bounds discovery. Zero means discovery.DefaultMaxFiles.
	MaxFiles int

	// ExcludeDirs are directory names discovery skips. Nil keeps the defaults.
	ExcludeDirs []string

	// ArtifactDirs are the generated tests, docs and results directories,
	// relative to the project root. Discovery never descends into them, so
	// generated files are not fed back into the next run.
	ArtifactDirs []string

	// NoSave skips the JSON result dump.
	NoSave bool

	// Verbose lists the discovered files before processing.
	Verbose bool
}

func (c Config) discoveryOptions() discovery.Options {
	return discovery.Options{
		MaxFiles:     c.MaxFiles,
		ExcludeDirs:  c.ExcludeDirs,
		ExcludePaths: c.ArtifactDirs,
	}
}
