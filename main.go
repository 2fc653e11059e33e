package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/chazu/nurbs/pkg/backend"
	"github.com/chazu/nurbs/pkg/preview"
	"github.com/chazu/nurbs/pkg/tessellate"
)

const helpBanner = `nurbs: tessellate NURBS curves and trimmed surfaces.

Usage: nurbs [flags] scene.nurbs

Reads the scene from stdin when the path is "-".

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

var (
	jsonOut   = flag.String("o", "", "Write meshes and polylines as JSON to this file (- for stdout)")
	stlOut    = flag.String("stl", "", "Write filled surfaces as binary STL to this file")
	pngOut    = flag.String("png", "", "Write a shaded preview PNG to this file")
	view      = flag.String("view", "iso", "Preview view: top, front, side or iso")
	size      = flag.Int("size", 512, "Preview width and height in pixels")
	traceOut  = flag.String("trace", "", "Write the evaluator call trace to this file (- for stdout)")
	verbose   = flag.Bool("v", false, "Log subdivision details to stderr")
	viewScale = flag.Float64("scale", tessellate.DefaultViewScale, "Pixels per model unit for sampling tolerances")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, helpBanner)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if *verbose {
		tessellate.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	source, err := readSource(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	app := NewApp()
	app.SetViewScale(*viewScale)

	var extra []backend.Evaluator
	var rec *backend.Recorder
	if *traceOut != "" {
		rec = backend.NewRecorder()
		extra = append(extra, rec)
	}

	eval, result := app.build(string(source), extra...)
	for _, w := range result.Warnings {
		log.Printf("warning: %s", formatMessage(w))
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			log.Printf("error: %s", formatMessage(e))
		}
		os.Exit(1)
	}

	if rec != nil {
		if err := writeTo(*traceOut, rec.WriteTo); err != nil {
			log.Fatalf("trace: %v", err)
		}
	}
	if *jsonOut != "" {
		err := writeTo(*jsonOut, func(w io.Writer) (int64, error) {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return 0, enc.Encode(result)
		})
		if err != nil {
			log.Fatalf("json: %v", err)
		}
	}
	if *stlOut != "" {
		if err := eval.SaveSTL(*stlOut); err != nil {
			log.Fatalf("stl: %v", err)
		}
	}
	if *pngOut != "" {
		v, err := preview.ParseView(*view)
		if err != nil {
			log.Fatal(err)
		}
		opts := preview.DefaultOptions()
		opts.Width, opts.Height = *size, *size
		opts.View = v
		if err := preview.SavePNG(*pngOut, eval.Meshes(), eval.Polylines(), opts); err != nil {
			log.Fatalf("png: %v", err)
		}
	}

	// Keep piped stdout clean for the JSON or trace stream.
	if *jsonOut != pipeName && *traceOut != pipeName {
		printSummary(os.Stdout, result, term.IsTerminal(int(os.Stdout.Fd())))
	}
}

// readSource reads the scene from a file or, for "-", from a pipe.
func readSource(path string) ([]byte, error) {
	if path == pipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return io.ReadAll(os.Stdin)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read the scene file: %w", err)
	}
	return src, nil
}

// writeTo opens path, or stdout for "-", and hands it to write.
func writeTo(path string, write func(io.Writer) (int64, error)) error {
	if path == pipeName {
		_, err := write(os.Stdout)
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatMessage(e EvalErrorData) string {
	msg := e.Message
	if e.Object != "" {
		msg = e.Object + ": " + msg
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

// printSummary lists each object's output. On a terminal the table is
// aligned; otherwise one tab-separated line per object.
func printSummary(w io.Writer, r EvalResult, aligned bool) {
	out := w
	var tw *tabwriter.Writer
	if aligned {
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		out = tw
	}
	fmt.Fprintln(out, "object\tkind\tvertices\ttriangles\tpoints")
	for _, m := range r.Meshes {
		fmt.Fprintf(out, "%s\tmesh\t%d\t%d\t-\n", m.PartName, len(m.Vertices)/3, len(m.Indices)/3)
	}
	for _, l := range r.Polylines {
		fmt.Fprintf(out, "%s\tpolyline\t-\t-\t%d\n", l.PartName, len(l.Points)/3)
	}
	if tw != nil {
		tw.Flush()
	}
	fmt.Fprintf(w, "%d triangles, %d polyline points, max depth %d\n",
		r.Stats.Triangles, r.Stats.Points, r.Stats.MaxDepth)
}
