package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/kdimtricp/medannotate/internal/annotation"
)

const helpText = `Commands:
  start              begin annotating the current item
  pause | resume     stop or continue the timer
  edit <text>        replace the working text
  reason <text>      note why the text was changed
  submit             score and save the annotation
  threshold <0..1>   change the confidence threshold
  samples <n>        change how many candidates are fetched
  refresh            fetch candidates again
  show               print the current item
  queue              list pending candidates
  help               print this help
  quit               leave`

// shell is the line-oriented front end over a Workbench.
type shell struct {
	bench  *annotation.Workbench
	in     io.Reader
	out    *lockedWriter
	render *renderer
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) println(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *lockedWriter) print(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.w, s)
}

func newShell(bench *annotation.Workbench, in io.Reader, out io.Writer, render *renderer) *shell {
	return &shell{
		bench:  bench,
		in:     in,
		out:    &lockedWriter{w: out},
		render: render,
	}
}

func (s *shell) Run(ctx context.Context) error {
	s.bench.Status().Subscribe(func(status string) {
		s.out.println(s.render.Status(status))
	})
	s.bench.Session().Timer().OnTick(s.onTick)

	if err := s.bench.Refresh(ctx); err != nil {
		s.out.println("error: " + err.Error())
	}
	s.out.println(s.render.Session(s.bench.Session().Snapshot()))

	scanner := bufio.NewScanner(s.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.out.print(s.prompt())
		if !scanner.Scan() {
			s.out.println("")
			return scanner.Err()
		}

		name, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		if name == "" {
			continue
		}
		if name == "quit" || name == "exit" {
			return nil
		}
		if err := s.exec(ctx, strings.ToLower(name), strings.TrimSpace(arg)); err != nil {
			s.out.println("error: " + describe(err))
		}
	}
}

// prompt carries the elapsed time while an item is being worked on.
func (s *shell) prompt() string {
	snap := s.bench.Session().Snapshot()
	if snap.Phase == annotation.PhaseRunning || snap.Phase == annotation.PhasePaused {
		return "[" + formatElapsed(snap.Elapsed) + "] > "
	}
	return "> "
}

// onTick keeps the clock visible between commands by putting it in the terminal
// title, which does not disturb the line being typed.
func (s *shell) onTick(elapsed int) {
	if !s.render.colorize {
		return
	}
	s.out.print("\x1b]0;annotate " + formatElapsed(elapsed) + "\x07")
}

func (s *shell) exec(ctx context.Context, name, arg string) error {
	session := s.bench.Session()
	queue := s.bench.Queue()

	switch name {
	case "start":
		if err := session.Start(); err != nil {
			return err
		}
		s.out.println(s.render.Session(session.Snapshot()))
	case "pause":
		return session.Pause()
	case "resume":
		return session.Resume()
	case "edit":
		return session.Edit(arg)
	case "reason":
		return session.SetReason(arg)
	case "submit":
		result, err := session.Submit(ctx)
		if err != nil {
			return err
		}
		s.out.println(fmt.Sprintf("saved %s after %s", result.ItemID, formatElapsed(result.AnnotateTime)))
		s.out.println(s.render.Session(session.Snapshot()))
	case "threshold":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("threshold must be a number: %q", arg)
		}
		if err := queue.SetThreshold(ctx, v); err != nil {
			return err
		}
		s.out.println(s.render.Session(session.Snapshot()))
	case "samples":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("samples must be an integer: %q", arg)
		}
		if err := queue.SetCapacity(ctx, n); err != nil {
			return err
		}
		s.out.println(s.render.Session(session.Snapshot()))
	case "refresh":
		if err := s.bench.Refresh(ctx); err != nil {
			return err
		}
		s.out.println(s.render.Session(session.Snapshot()))
	case "show":
		s.out.println(s.render.Status(s.bench.Status().Current()))
		s.out.println(s.render.Session(session.Snapshot()))
	case "queue":
		s.out.println(s.render.Queue(queue.Pending(), queue.Threshold(), queue.Capacity()))
	case "help":
		s.out.println(helpText)
	default:
		return fmt.Errorf("unknown command %q, type 'help'", name)
	}
	return nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, annotation.ErrInvalidPhase):
		return "not available right now; see 'show' for the controls you can use"
	case errors.Is(err, annotation.ErrNoCandidate):
		return "no candidate loaded"
	case errors.Is(err, annotation.ErrSubmitInFlight):
		return "a submission is already in progress"
	}
	return err.Error()
}
