// Package terminal is an interactive line-oriented front end for a viewer.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/ripview/internal/benchmark"
	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/layers"
	"github.com/ziadkadry99/ripview/internal/overlay"
	"github.com/ziadkadry99/ripview/internal/session"
	"github.com/ziadkadry99/ripview/internal/viewer"
)

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("quit")

// Viewer drives a viewer.App from typed commands.
type Viewer struct {
	App      *viewer.App
	Out      io.Writer
	Animator benchmark.Animator
	// Width is the raster width used by render commands.
	Width int

	mu sync.Mutex
}

// New returns a terminal viewer writing to out.
func New(app *viewer.App, out io.Writer) *Viewer {
	return &Viewer{
		App:      app,
		Out:      out,
		Animator: benchmark.Animator{Ticker: benchmark.IntervalTicker{Interval: 16 * time.Millisecond}, Steps: 20},
		Width:    1224,
	}
}

const help = `Commands:
  open <file.pdf>           upload a document and show page 1
  next | prev | goto <n>    navigate
  toggle <layer>            show or hide a layer
  layers                    list layer status
  text                      print the layout text of the page
  search [query]            search the page (empty clears)
  bench                     compare extraction libraries on this page
  render <file.png|.svg>    write the page with its overlay
  summary <file.html>       write an HTML summary of the page
  quit`

// Run reads commands until quit or end of input.
func (v *Viewer) Run(ctx context.Context) error {
	stop := v.watch(ctx)
	defer stop()

	v.println(help)
	for {
		p := promptui.Prompt{Label: v.promptLabel()}
		line, err := p.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return fmt.Errorf("reading command: %w", err)
		}
		if err := v.Execute(ctx, line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			v.printf("Error: %s\n", extract.UserMessage(err))
		}
	}
}

func (v *Viewer) promptLabel() string {
	snap := v.App.Session.Snapshot()
	if snap.Document == nil {
		return "ripview"
	}
	return fmt.Sprintf("%s %d/%d", snap.Document.Filename, snap.Current, snap.Document.PageCount)
}

// Execute runs one command line.
func (v *Viewer) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch cmd {
	case "help", "?":
		v.println(help)
	case "quit", "exit", "q":
		return ErrQuit
	case "open":
		if arg == "" {
			return errors.New("usage: open <file.pdf>")
		}
		return v.open(ctx, arg)
	case "next", "n":
		return v.step(v.App.Next(ctx), "last")
	case "prev", "p":
		return v.step(v.App.Prev(ctx), "first")
	case "goto", "g":
		if len(args) != 1 {
			return errors.New("usage: goto <page>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("page must be an integer: %q", args[0])
		}
		return v.navigated(v.App.Goto(ctx, n))
	case "toggle", "t":
		if len(args) != 1 {
			return errors.New("usage: toggle <layer>")
		}
		l, err := layers.Parse(args[0])
		if err != nil {
			return err
		}
		visible, err := v.App.Session.ToggleLayer(ctx, l)
		state := "hidden"
		if visible {
			state = "shown"
		}
		v.printf("%s %s\n", l, state)
		if err != nil {
			v.printf("  %s\n", extract.UserMessage(err))
		}
	case "layers", "l":
		v.printLayers()
	case "text":
		snap := v.App.Session.Snapshot()
		if !snap.Ready() {
			return viewer.ErrNotReady
		}
		v.println(snap.Text.Layout)
	case "search", "s":
		if err := v.App.Search.Submit(ctx, arg); err != nil {
			return err
		}
		st := v.App.Search.Status()
		if st.Query == "" {
			v.println("search cleared")
		} else {
			v.printf("%d match(es) for %q\n", st.Matches, st.Query)
		}
	case "bench", "b":
		return v.bench(ctx)
	case "render", "r":
		if arg == "" {
			return errors.New("usage: render <file.png|file.svg>")
		}
		return v.render(ctx, arg)
	case "summary":
		if arg == "" {
			return errors.New("usage: summary <file.html>")
		}
		return v.writeFile(arg, func(w io.Writer) error {
			return v.App.Report.Render(w, v.App.Summary())
		})
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func (v *Viewer) open(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if err := v.App.Open(ctx, filepath.Base(path), f); err != nil {
		return err
	}
	v.printStatus()
	return nil
}

func (v *Viewer) navigated(err error) error {
	if err != nil && !viewer.Silent(err) {
		return err
	}
	v.printStatus()
	return nil
}

// step reports a boundary hit on next/prev instead of failing.
func (v *Viewer) step(err error, edge string) error {
	if errors.Is(err, session.ErrPageOutOfRange) {
		v.printf("already on the %s page\n", edge)
		return nil
	}
	return v.navigated(err)
}

func (v *Viewer) printStatus() {
	snap := v.App.Session.Snapshot()
	if snap.Document == nil || snap.Page == nil {
		return
	}
	var shown []string
	for _, ls := range snap.Layers {
		if ls.Visible {
			shown = append(shown, fmt.Sprintf("%s(%d)", ls.Layer, ls.Count))
		}
	}
	v.printf("%s page %d of %d  %.0fx%.0f pt  %d chars  [%s]\n",
		snap.Document.Filename, snap.Page.Number, snap.Document.PageCount,
		snap.Page.Width, snap.Page.Height, snap.Page.CharCount, strings.Join(shown, " "))
}

func (v *Viewer) printLayers() {
	snap := v.App.Session.Snapshot()
	for _, ls := range snap.Layers {
		mark := " "
		if ls.Visible {
			mark = "x"
		}
		detail := ""
		switch {
		case ls.Error != "":
			detail = "error: " + ls.Error
		case ls.Pending:
			detail = "loading"
		case ls.Fetched:
			detail = fmt.Sprintf("%d items in %.1f ms", ls.Count, ls.TimingMS)
		}
		v.printf("[%s] %-7s %s\n", mark, ls.Layer, detail)
	}
}

func (v *Viewer) bench(ctx context.Context) error {
	snap := v.App.Session.Snapshot()
	if !snap.Ready() {
		return viewer.ErrNotReady
	}
	chart, err := v.App.Bench.Run(ctx, snap.Page.Number)
	if err != nil {
		if viewer.Silent(err) {
			return nil
		}
		return err
	}
	if chart == nil {
		// Superseded by a page change.
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	p := &ChartPainter{Out: v.Out, Redraw: true}
	return v.Animator.Play(ctx, *chart, p.Paint)
}

func (v *Viewer) render(ctx context.Context, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		ov, err := v.App.Overlay(v.Width)
		if err != nil {
			return err
		}
		return v.writeFile(path, func(w io.Writer) error { return overlay.WriteSVG(w, ov) })
	case ".png":
		return v.writeFile(path, func(w io.Writer) error { return v.App.RenderPNG(ctx, w, v.Width) })
	default:
		return fmt.Errorf("unsupported output %q: use .png or .svg", path)
	}
}

func (v *Viewer) writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	v.printf("wrote %s\n", path)
	return nil
}

// watch prints asynchronous notices (layer failures, auto-run results)
// until the returned stop func is called.
func (v *Viewer) watch(ctx context.Context) func() {
	events, unsubscribe := v.App.Session.Events().Subscribe(32)
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				v.notice(ev)
			}
		}
	}()
	return func() {
		cancel()
		unsubscribe()
		<-done
	}
}

func (v *Viewer) notice(ev session.Event) {
	switch ev.Type {
	case session.EventLayerFailed:
		v.printf("\n%s failed on page %d: %s\n", ev.Layer, ev.Page, ev.Message)
	case session.EventError:
		v.printf("\n%s\n", ev.Message)
	case session.EventBenchmark:
		st, ok := ev.Payload.(benchmark.Status)
		if ok && !st.Running && st.Chart != nil {
			v.printf("\nbenchmark for page %d ready (type bench to chart it)\n", st.Page)
		}
	}
}

func (v *Viewer) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.Out, format, args...)
}

func (v *Viewer) println(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.Out, s)
}
