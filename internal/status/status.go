// Package status summarizes the result dumps saved by earlier runs.
package status

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dusk-indust/codeassist/internal/export"
	"github.com/dusk-indust/codeassist/internal/service"
)

// RunInfo describes the last saved run of one service.
type RunInfo struct {
	Service     string
	Status      string
	Message     string
	Error       string
	ProjectPath string
	RunID       string
	SavedAt     time.Time
	FilePath    string
}

// Failed reports whether the saved run failed.
func (r RunInfo) Failed() bool { return r.Error != "" }

// Report holds the saved runs found in a results directory.
type Report struct {
	Dir  string
	Runs []RunInfo

	// Missing lists canonical services with no saved run.
	Missing []string

	// Unreadable maps dump files that could not be decoded to the reason.
	Unreadable map[string]string
}

// Latest returns the most recently saved run, or false when there is none.
func (r Report) Latest() (RunInfo, bool) {
	if len(r.Runs) == 0 {
		return RunInfo{}, false
	}
	latest := r.Runs[0]
	for _, run := range r.Runs[1:] {
		if run.SavedAt.After(latest.SavedAt) {
			latest = run
		}
	}
	return latest, true
}

// ScanResults reads every dump in dir. A missing directory yields an empty
// report, not an error.
func ScanResults(dir string) (Report, error) {
	report := Report{Dir: dir, Unreadable: map[string]string{}}

	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return report, err
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		svc, ok := export.ServiceFromFile(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		dump, err := export.Load(path)
		if err != nil {
			report.Unreadable[path] = err.Error()
			continue
		}

		saved, _ := time.Parse(time.RFC3339, dump.SavedAt)
		report.Runs = append(report.Runs, RunInfo{
			Service:     svc,
			Status:      string(dump.Result.Status),
			Message:     dump.Result.Message,
			Error:       dump.Result.Error,
			ProjectPath: dump.Result.ProjectPath,
			RunID:       dump.RunID,
			SavedAt:     saved,
			FilePath:    path,
		})
		seen[svc] = true
	}

	sort.Slice(report.Runs, func(i, j int) bool { return report.Runs[i].Service < report.Runs[j].Service })
	for _, svc := range service.Canonical {
		if !seen[svc] {
			report.Missing = append(report.Missing, svc)
		}
	}
	return report, nil
}
