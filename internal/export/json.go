// Package export persists the last result envelope of each service as JSON.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/codeassist/internal/envelope"
)

// DefaultDir is where result dumps are written, relative to the project.
const DefaultDir = "tests/results"

// fileSuffix names every dump: <service>_results.json.
const fileSuffix = "_results.json"

// Dump is the on-disk form of one saved run.
type Dump struct {
	RunID   string            `json:"run_id"`
	SavedAt string            `json:"saved_at"`
	Result  envelope.Envelope `json:"result"`
}

// Saver writes dumps into a directory, one file per service.
type Saver struct {
	dir   string
	newID func() string
	now   func() time.Time
}

// NewSaver creates a Saver writing under dir.
func NewSaver(dir string) *Saver {
	return &Saver{dir: dir, newID: uuid.NewString, now: time.Now}
}

// Dir returns the output directory.
func (s *Saver) Dir() string { return s.dir }

// ResultsFile returns the dump path for service under dir.
func ResultsFile(dir, service string) string {
	return filepath.Join(dir, safeName(service)+fileSuffix)
}

// ServiceFromFile returns the service a dump file belongs to, or false when
// name is not a dump file.
func ServiceFromFile(name string) (string, bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, fileSuffix) {
		return "", false
	}
	svc := strings.TrimSuffix(base, fileSuffix)
	return svc, svc != ""
}

// Save writes env to its service file, replacing any earlier dump, and
// returns the path written.
func (s *Saver) Save(env envelope.Envelope) (string, error) {
	dump := Dump{
		RunID:   s.newID(),
		SavedAt: s.now().UTC().Format(time.RFC3339),
		Result:  env,
	}
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: encode %s result: %w", env.Service, err)
	}

	path := ResultsFile(s.dir, env.Service)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("export: mkdir %s: %w", s.dir, err)
	}
	// Write then rename so a reader never sees a partial dump.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("export: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("export: rename %s: %w", path, err)
	}
	return path, nil
}

// Load reads a dump written by Save.
func Load(path string) (Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dump{}, fmt.Errorf("export: read %s: %w", path, err)
	}
	var d Dump
	if err := json.Unmarshal(data, &d); err != nil {
		return Dump{}, fmt.Errorf("export: decode %s: %w", path, err)
	}
	return d, nil
}

// safeName keeps a service name usable as a file name.
func safeName(service string) string {
	service = strings.TrimSpace(service)
	if service == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, service)
}
