package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dusk-indust/codeassist/internal/orchestrator"
)

// Prompter is the line-based menu used when stdin is not a terminal.
type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewPrompter reads answers from in and writes the menu to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Next prints the menu and reads one choice. End of input quits. Unknown
// answers are reported and the menu is shown again. A cancelled ctx returns
// an interrupted choice with ctx's error even while a read is pending.
func (p *Prompter) Next(ctx context.Context) (Choice, error) {
	items := orchestrator.Services()
	quitKey := fmt.Sprint(len(items) + 1)

	for {
		fmt.Fprintln(p.out, "\n🤖 Code Assistant")
		for i, info := range items {
			fmt.Fprintf(p.out, "%d. %s %s\n", i+1, info.Icon, info.Title)
		}
		fmt.Fprintf(p.out, "%s. 👋 Quit\n", quitKey)
		fmt.Fprintf(p.out, "Select a service (1-%s): ", quitKey)

		answer, err := p.readLine(ctx)
		if err != nil {
			return quitOn(err)
		}
		answer = strings.ToLower(answer)
		if answer == quitKey || answer == "q" || answer == "quit" {
			return Choice{Quit: true}, nil
		}

		name, ok := lookup(items, answer)
		if !ok {
			fmt.Fprintf(p.out, "Unknown choice %q\n", answer)
			continue
		}

		fmt.Fprint(p.out, "Path [.]: ")
		path, err := p.readLine(ctx)
		if err != nil {
			return quitOn(err)
		}
		if path == "" {
			path = "."
		}
		return Choice{Service: name, Path: path}, nil
	}
}

// readLine returns the next trimmed line. A final line without a newline is
// still returned; io.EOF comes back only once nothing is left. The blocking
// read runs in a goroutine that outlives a cancelled ctx; its line is kept
// for the next call.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if p.lines == nil {
		p.lines = make(chan lineResult, 1)
		go p.readLoop()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	}
}

func (p *Prompter) readLoop() {
	defer close(p.lines)
	for {
		line, err := p.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if !errors.Is(err, io.EOF) {
				p.lines <- lineResult{err: err}
			}
			return
		}
		p.lines <- lineResult{line: strings.TrimSpace(line)}
		if err != nil {
			return
		}
	}
}

func quitOn(err error) (Choice, error) {
	switch {
	case errors.Is(err, io.EOF):
		return Choice{Quit: true}, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Choice{Quit: true, Interrupted: true}, err
	}
	return Choice{Quit: true}, fmt.Errorf("tui: read input: %w", err)
}

// lookup accepts a menu number or any service alias.
func lookup(items []orchestrator.Info, answer string) (string, bool) {
	if answer == "" {
		return "", false
	}
	name := orchestrator.Normalize(answer)
	for _, info := range items {
		if info.Name == name {
			return name, true
		}
	}
	return "", false
}
