// Command calc-tools validates tool definitions and maintains the curve store
// outside of the running portal.
//
//	calc-tools validate [-dir configs/tools] [-examples]
//	calc-tools schema [-out file]
//	calc-tools index [-dir configs/tools] [-out file]
//	calc-tools import-fans -db data/curves [-file import/fan_curves.json] [-overwrite]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/bobmcallan/calc-portal/internal/calculators"
	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/config"
	"github.com/bobmcallan/calc-portal/internal/dispatch"
	"github.com/bobmcallan/calc-portal/internal/importer"
	"github.com/bobmcallan/calc-portal/internal/interfaces"
	"github.com/bobmcallan/calc-portal/internal/models"
	"github.com/bobmcallan/calc-portal/internal/registry"
	"github.com/bobmcallan/calc-portal/internal/schema"
	"github.com/bobmcallan/calc-portal/internal/seed"
	"github.com/bobmcallan/calc-portal/internal/storage/badger"
	"github.com/bobmcallan/calc-portal/internal/toolindex"
)

const defaultToolsDir = "configs/tools"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	logger := common.NewLoggerWithOutput("warn", stderr)

	var err error
	switch args[0] {
	case "validate":
		err = runValidate(args[1:], stdout, logger)
	case "schema":
		err = runSchema(args[1:], stdout)
	case "index":
		err = runIndex(args[1:], stdout)
	case "import-fans":
		err = runImportFans(args[1:], stdout, logger)
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, config.GetFullVersion())
		return 0
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: calc-tools <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  validate     check every tool definition in a directory")
	fmt.Fprintln(w, "  schema       print the JSON schema of a tool definition")
	fmt.Fprintln(w, "  index        print a markdown index of the tool definitions")
	fmt.Fprintln(w, "  import-fans  load fan performance curves into a curve store")
	fmt.Fprintln(w, "  version      print version information")
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// openOutput returns stdout when path is empty.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func runValidate(args []string, stdout io.Writer, logger *common.Logger) error {
	fs := newFlagSet("validate")
	dir := fs.String("dir", defaultToolsDir, "Tool definition directory")
	examples := fs.Bool("examples", false, "Run every example case through its calculator")
	if err := fs.Parse(args); err != nil {
		return err
	}

	curves := builtinCurveStore()
	factories, err := calculators.NewFactories(calculators.Deps{Curves: curves})
	if err != nil {
		return err
	}

	tools, err := registry.LoadAll(*dir, factories.Has)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(tools))
	for id := range tools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(stdout, "[OK] %s (%s)\n", id, tools[id].File)
	}

	if *examples {
		reg := registry.New(*dir, factories, schema.Validator, logger)
		if err := reg.Reload(); err != nil {
			return err
		}
		if err := runExamples(reg, stdout, logger); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "%d tool definitions valid\n", len(tools))
	return nil
}

func runExamples(reg *registry.Registry, stdout io.Writer, logger *common.Logger) error {
	d := dispatch.New(reg, logger)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	failed := 0
	for _, tool := range reg.Current().List() {
		for _, ex := range tool.Examples {
			body := make(map[string]any, len(ex.Inputs)+1)
			for k, v := range ex.Inputs {
				body[k] = v
			}
			if ex.Scenario != "" {
				body["scenario"] = ex.Scenario
			}
			raw, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("%s example %q: %w", tool.ID, ex.Title, err)
			}

			res, err := d.Dispatch(ctx, tool.ID, raw)
			if err != nil {
				failed++
				fmt.Fprintf(stdout, "[FAIL] %s / %s: %s\n", tool.ID, ex.Title, errorText(err))
				continue
			}
			fmt.Fprintf(stdout, "[OK] %s / %s = %v %s\n", tool.ID, ex.Title, res.Result, res.Unit)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d example(s) failed", failed)
	}
	return nil
}

// errorText includes the cause of internal errors, which Detail hides from API clients.
func errorText(err error) string {
	var ie *dispatch.InternalError
	if errors.As(err, &ie) && ie.Cause != nil {
		return ie.Cause.Error()
	}
	return dispatch.Detail(err)
}

func runSchema(args []string, stdout io.Writer) error {
	fs := newFlagSet("schema")
	out := fs.String("out", "", "Write the schema to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := registry.DefinitionSchemaJSON()
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(*out, stdout)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func runIndex(args []string, stdout io.Writer) error {
	fs := newFlagSet("index")
	dir := fs.String("dir", defaultToolsDir, "Tool definition directory")
	out := fs.String("out", "", "Write the index to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tools, err := registry.LoadAll(*dir, nil)
	if err != nil {
		return err
	}
	list := make([]*registry.ToolSpec, 0, len(tools))
	for _, t := range tools {
		list = append(list, t)
	}

	w, closeFn, err := openOutput(*out, stdout)
	if err != nil {
		return err
	}
	if err := toolindex.Render(w, list); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func runImportFans(args []string, stdout io.Writer, logger *common.Logger) error {
	fs := newFlagSet("import-fans")
	dbPath := fs.String("db", "", "Badger curve store directory (required)")
	file := fs.String("file", "", "Curve JSON file; without it the built-in curves are installed")
	overwrite := fs.Bool("overwrite", false, "Replace models that already have points")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		return errors.New("-db is required")
	}

	m, err := badger.NewManager(logger, &config.BadgerConfig{Path: *dbPath})
	if err != nil {
		return err
	}
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	curves := seed.BuiltinCurves()
	if *file != "" {
		curves, err = importer.LoadFile(*file)
		if err != nil {
			return err
		}
	}

	n, err := importer.ImportCurves(ctx, m.PerformanceCurveStorage(), logger, curves, *overwrite)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%d of %d curve(s) imported into %s\n", n, len(curves), *dbPath)
	return nil
}

// memCurves serves curves from memory so example runs need no database.
type memCurves map[string][]models.PerformancePoint

func builtinCurveStore() memCurves {
	m := memCurves{}
	for _, c := range seed.BuiltinCurves() {
		m[c.Model] = c.Points
	}
	return m
}

func (m memCurves) Get(_ context.Context, model string) ([]models.PerformancePoint, error) {
	points, ok := m[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrCurveNotFound, model)
	}
	return points, nil
}

func (m memCurves) Upsert(_ context.Context, model string, point models.PerformancePoint) error {
	m[model] = append(m[model], point)
	return nil
}

func (m memCurves) Models(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(m))
	for model := range m {
		out = append(out, model)
	}
	sort.Strings(out)
	return out, nil
}
