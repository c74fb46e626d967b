package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/kdimtricp/medannotate/internal/annotation"
	"github.com/kdimtricp/medannotate/internal/models"
	"github.com/mattn/go-isatty"
)

type renderer struct {
	colorize bool
	badges   map[annotation.Badge]*color.Color
	dim      *color.Color
}

func newRenderer(colorize bool) *renderer {
	r := &renderer{
		colorize: colorize,
		badges: map[annotation.Badge]*color.Color{
			annotation.BadgeReady:   color.New(color.FgBlue, color.Bold),
			annotation.BadgePaused:  color.New(color.FgYellow, color.Bold),
			annotation.BadgeSuccess: color.New(color.FgGreen, color.Bold),
			annotation.BadgeEmpty:   color.New(color.FgMagenta),
			annotation.BadgeError:   color.New(color.FgRed, color.Bold),
		},
		dim: color.New(color.Faint),
	}
	for _, c := range r.badges {
		r.apply(c)
	}
	r.apply(r.dim)
	return r
}

func (r *renderer) apply(c *color.Color) {
	if r.colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
}

// Status renders status with its badge, e.g. "[READY] Data ready for annotating".
func (r *renderer) Status(status string) string {
	badge := annotation.Classify(status)
	label := "[" + strings.ToUpper(badge.String()) + "]"
	return r.badges[badge].Sprint(label) + " " + status
}

func (r *renderer) Session(snap annotation.Snapshot) string {
	if snap.Item == nil {
		return "No candidate loaded. Try 'refresh' or raise the threshold."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Item        %s\n", snap.Item.ID)
	fmt.Fprintf(&b, "Task        %s\n", snap.Item.Task)
	fmt.Fprintf(&b, "Confidence  %s\n", formatConfidence(snap.Item))
	if snap.Item.Annotated() {
		fmt.Fprintf(&b, "Last pass   %s, score %.1f\n", formatElapsed(*snap.Item.AnnotateTime), *snap.Item.Performance)
	}
	fmt.Fprintf(&b, "Timer       %s (%s)\n", formatElapsed(snap.Elapsed), snap.Phase)
	if snap.Text != snap.Item.Text {
		fmt.Fprintf(&b, "Original    %s\n", r.dim.Sprint(snap.Item.Text))
	}
	fmt.Fprintf(&b, "Text        %s\n", snap.Text)
	if snap.Reason != "" {
		fmt.Fprintf(&b, "Reason      %s\n", snap.Reason)
	}
	b.WriteString(r.dim.Sprint("Controls    " + strings.Join(controls(snap), " ")))
	return b.String()
}

func (r *renderer) Queue(items []models.MedicalText, threshold float64, capacity int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d pending (threshold %.2f, samples %d)", len(items), threshold, capacity)
	for i, item := range items {
		fmt.Fprintf(&b, "\n%2d. %s  %s  %s", i+1, formatConfidence(&item), item.ID, truncate(item.Text, 48))
	}
	return b.String()
}

func controls(snap annotation.Snapshot) []string {
	var out []string
	if snap.CanStart() {
		out = append(out, "start")
	}
	if snap.CanPause() {
		out = append(out, "pause")
	}
	if snap.CanResume() {
		out = append(out, "resume")
	}
	if snap.CanEdit() {
		out = append(out, "edit")
	}
	if snap.Item != nil && snap.Phase != annotation.PhaseSubmitting {
		out = append(out, "reason")
	}
	if snap.CanSubmit() {
		out = append(out, "submit")
	}
	return out
}

func formatConfidence(item *models.MedicalText) string {
	if item.Confidence == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *item.Confidence)
}

func formatElapsed(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
