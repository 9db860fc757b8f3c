package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flux/internal/diag"
	"flux/internal/diagfmt"
	"flux/internal/driver"
	"flux/internal/project"
	"flux/internal/version"
)

// errDiagnostics signals that errors were printed as diagnostics.
var errDiagnostics = errors.New("check found errors")

var checkCmd = &cobra.Command{
	Use:   "check [flux.toml|dir]",
	Short: "Type-check a flux project",
	Long: `Check loads flux.toml, builds the package symbol tables, resolves every path,
checks trait conformance of apply blocks and unifies function bodies.
Without an argument the manifest is looked up from the working directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	checkCmd.Flags().Int("jobs", 0, "parallel declaration checks (0 = GOMAXPROCS)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes")
	checkCmd.Flags().Bool("disk-cache", false, "reuse results from the on-disk cache")
	checkCmd.Flags().Bool("clear-cache", false, "drop the on-disk cache before checking")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().String("path-mode", "auto", "file paths in output (auto|absolute|relative|basename)")
	checkCmd.Flags().Int8("context", 0, "source lines shown around each diagnostic")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short or json)", format)
	}
	jobs, _ := cmd.Flags().GetInt("jobs")
	withNotes, _ := cmd.Flags().GetBool("with-notes")
	useCache, _ := cmd.Flags().GetBool("disk-cache")
	clearCache, _ := cmd.Flags().GetBool("clear-cache")
	uiValue, _ := cmd.Flags().GetString("ui")
	pathModeValue, _ := cmd.Flags().GetString("path-mode")
	contextLines, _ := cmd.Flags().GetInt8("context")
	maxDiagnostics, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	showTimings, _ := cmd.Root().PersistentFlags().GetBool("timings")

	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	pathMode, err := readPathMode(pathModeValue)
	if err != nil {
		return err
	}

	var arg string
	if len(args) == 1 {
		arg = args[0]
	}
	path, err := project.ResolveManifestPath(arg)
	if err != nil {
		return err
	}

	tr, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer tr.close(cmd)

	opts := driver.Options{
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		EnableTimings:  showTimings,
		ToolVersion:    version.Version,
	}
	if useCache || clearCache {
		cache, cacheErr := driver.OpenDiskCache("flux")
		switch {
		case cacheErr != nil:
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: disk cache disabled: %v\n", cacheErr)
		case clearCache:
			if err := cache.DropAll(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to clear disk cache: %v\n", err)
			}
		}
		if useCache {
			opts.Cache = cache
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var res *driver.Result
	if shouldUseTUI(mode, format) {
		res, err = runCheckWithUI(ctx, "checking "+path, path, opts)
	} else {
		res, err = driver.Check(ctx, path, opts)
	}
	if err != nil {
		tr.dump(cmd)
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = diagfmt.JSON(out, res.Bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
		})
	case "short":
		err = diagfmt.Short(out, res.Bag, res.FileSet, withNotes)
	default:
		diagfmt.Pretty(out, res.Bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     !color.NoColor,
			Context:   contextLines,
			PathMode:  pathMode,
			ShowNotes: withNotes,
		})
		printSummary(cmd.ErrOrStderr(), res)
	}
	if err != nil {
		return err
	}
	if showTimings && format != "json" {
		printTimings(cmd.ErrOrStderr(), res.Timings)
	}
	if res.HasErrors() {
		return errDiagnostics
	}
	return nil
}

func readPathMode(value string) (diagfmt.PathMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return diagfmt.PathModeAuto, nil
	case "absolute":
		return diagfmt.PathModeAbsolute, nil
	case "relative":
		return diagfmt.PathModeRelative, nil
	case "basename":
		return diagfmt.PathModeBasename, nil
	default:
		return diagfmt.PathModeAuto, fmt.Errorf("invalid --path-mode value %q (expected auto|absolute|relative|basename)", value)
	}
}

func printSummary(out io.Writer, res *driver.Result) {
	errs := res.Bag.Count(diag.SevError)
	warns := res.Bag.Count(diag.SevWarning)
	cached := ""
	if res.FromCache {
		cached = " (cached)"
	}
	if errs == 0 && warns == 0 {
		fmt.Fprintf(out, "%s %d packages, %d modules%s\n",
			color.New(color.FgGreen, color.Bold).Sprint("ok"), res.Stats.Packages, res.Stats.Modules, cached)
		return
	}
	fmt.Fprintf(out, "%s, %s%s\n",
		color.New(color.FgRed, color.Bold).Sprint(plural(errs, "error")),
		color.New(color.FgYellow).Sprint(plural(warns, "warning")),
		cached)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
