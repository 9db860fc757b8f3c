package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flux/internal/driver"
	"flux/internal/project"
	"flux/internal/source"
	"flux/internal/symbols"
	"flux/internal/version"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <flux.toml|dir> <path>",
	Short: "Resolve a path the way a use declaration would",
	Args:  cobra.ExactArgs(2),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().String("package", "", "package to resolve from (default: first package)")
	resolveCmd.Flags().String("from", "", "module to resolve from (default: package root)")
	resolveCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type resolvePayload struct {
	Path      string   `json:"path"`
	Canonical string   `json:"canonical,omitempty"`
	Kind      string   `json:"kind,omitempty"`
	Vis       string   `json:"visibility,omitempty"`
	Package   string   `json:"package,omitempty"`
	Line      uint32   `json:"line,omitempty"`
	Column    uint32   `json:"column,omitempty"`
	Rest      []string `json:"rest,omitempty"`
	Error     string   `json:"error,omitempty"`
	Code      string   `json:"code,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	pkg, _ := cmd.Flags().GetString("package")
	from, _ := cmd.Flags().GetString("from")
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	path, err := project.ResolveManifestPath(args[0])
	if err != nil {
		return err
	}
	tr, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer tr.close(cmd)

	// кэш не подходит: нужны таблицы символов
	res, err := driver.Check(cmd.Context(), path, driver.Options{ToolVersion: version.Version, Jobs: 1})
	if err != nil {
		tr.dump(cmd)
		return err
	}

	out := cmd.OutOrStdout()
	resolved, err := res.Resolve(pkg, from, args[1])
	var rerr *symbols.ResolveError
	switch {
	case err == nil:
	case errors.As(err, &rerr):
		d := rerr.Diagnostic(res.Strings)
		if format == "json" {
			if encErr := writeJSON(out, resolvePayload{Path: args[1], Error: d.Message, Code: d.Code.ID()}); encErr != nil {
				return encErr
			}
		} else {
			fmt.Fprintf(out, "%s %s: %s\n", color.New(color.FgRed, color.Bold).Sprint("error"), d.Code.ID(), d.Message)
		}
		return errDiagnostics
	default:
		return err
	}

	payload := resolvePayload{
		Path:      resolved.Path,
		Canonical: resolved.Canonical,
		Kind:      resolved.Kind.String(),
		Vis:       resolved.Vis.String(),
		Package:   resolved.Package,
		Rest:      resolved.Rest,
	}
	if !resolved.Span.IsZero() {
		start, _ := res.FileSet.Resolve(resolved.Span)
		payload.Line, payload.Column = start.Line, start.Col
	}
	if format == "json" {
		return writeJSON(out, payload)
	}
	renderResolved(out, res.FileSet, resolved, payload)
	return nil
}

func renderResolved(out io.Writer, fs *source.FileSet, r *driver.Resolved, p resolvePayload) {
	bold := color.New(color.Bold)
	fmt.Fprintf(out, "%s -> %s\n", p.Path, bold.Sprint(p.Canonical))
	fmt.Fprintf(out, "  kind:       %s\n", p.Kind)
	fmt.Fprintf(out, "  visibility: %s\n", p.Vis)
	if p.Package != "" {
		fmt.Fprintf(out, "  package:    %s\n", p.Package)
	} else {
		fmt.Fprintln(out, "  package:    (builtin)")
	}
	if p.Line > 0 {
		fmt.Fprintf(out, "  declared:   %s:%d:%d\n", fs.DisplayPath(r.Span.File), p.Line, p.Column)
	}
	if len(p.Rest) > 0 {
		fmt.Fprintf(out, "  associated: %s\n", strings.Join(p.Rest, "::"))
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
