package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/deepakshirkem/spiderly/compiler"
	"github.com/deepakshirkem/spiderly/compiler/gen"
	"github.com/deepakshirkem/spiderly/compiler/gen/emit"
	"github.com/deepakshirkem/spiderly/compiler/load"
)

// ErrAuditFailed is returned by audit --fail when some DTO field is not
// filterable.
var ErrAuditFailed = errors.New("unresolved filter fields")

func newGenerateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen", "g"},
		Short:   "Generate the artifacts once",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			log, err := a.logger()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			return generate(cmd.Context(), cmd.OutOrStdout(), cfg, log)
		},
	}
}

func generate(ctx context.Context, w io.Writer, cfg *Config, log *zap.Logger) error {
	report, err := compiler.Generate(ctx, cfg.Project(), cfg.Options(log)...)
	if report != nil && report.Skipped != "" {
		color.New(color.FgYellow).Fprintln(w, report.Skipped)
		return nil
	}
	if report != nil {
		printReport(w, report)
	}
	return err
}

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the artifacts whenever a Go source changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			debounce, err := time.ParseDuration(cfg.Debounce)
			if err != nil {
				return gen.NewConfigError("debounce", cfg.Debounce, err.Error())
			}
			log, err := a.logger()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()
			if err := generate(ctx, out, cfg, log); err != nil {
				color.New(color.FgRed).Fprintf(out, "%v\n", err)
			}

			w, err := NewWatcher(watchRoots(cfg), debounce, artifactFilter(cfg.TargetDir()), log.Named("watch"))
			if err != nil {
				return err
			}
			color.New(color.FgCyan, color.Bold).Fprintf(out, "Watching %s (Ctrl+C to stop)\n", cfg.Project().Local.Dir)
			return w.Run(ctx, func(files []string) {
				log.Info("sources changed", zap.Strings("files", files))
				if err := generate(ctx, out, cfg, log); err != nil {
					color.New(color.FgRed).Fprintf(out, "%v\n", err)
				}
			})
		},
	}
}

// watchRoots returns the source directories of the project. Snapshot and
// package pattern references are not watched.
func watchRoots(cfg *Config) []string {
	p := cfg.Project()
	roots := []string{p.Local.Dir}
	for _, r := range p.References {
		if r.Snapshot == "" && len(r.Patterns) == 0 && r.Dir != "" {
			roots = append(roots, r.Dir)
		}
	}
	return roots
}

// artifactFilter matches the files the generator writes under target.
func artifactFilter(target string) func(string) bool {
	paths := make(map[string]bool)
	for _, e := range emit.All() {
		if p, err := filepath.Abs(filepath.Join(target, filepath.FromSlash(e.Path()))); err == nil {
			paths[p] = true
		}
	}
	return func(path string) bool {
		p, err := filepath.Abs(path)
		return err == nil && paths[p]
	}
}

func newAuditCommand(a *app) *cobra.Command {
	var fail bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List DTO fields that table filters cannot address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			log, err := a.logger()
			if err != nil {
				return err
			}
			entries, err := compiler.Audit(cmd.Context(), cfg.Project(), cfg.Options(log)...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				color.New(color.FgGreen).Fprintln(out, "every DTO field is filterable")
				return nil
			}
			warn := color.New(color.FgYellow)
			for _, e := range entries {
				warn.Fprintln(out, e.String())
			}
			if fail {
				return fmt.Errorf("%w: %d", ErrAuditFailed, len(entries))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fail, "fail", false, "exit with an error when some field is unresolved")
	return cmd
}

func newDescribeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the classified model as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			log, err := a.logger()
			if err != nil {
				return err
			}
			d, err := compiler.Describe(cmd.Context(), cfg.Project(), cfg.Options(log)...)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(d); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newSnapshotCommand(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "snapshot <dir> <out>",
		Short: "Write the declarations of a module to a snapshot file",
		Long: `snapshot extracts the declarations of the module at <dir> and writes them to
<out>. Projects list the snapshot as a reference instead of the sources:

  references:
    - snapshot: third_party/security.msgpack`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := compiler.Snapshot(cmd.Context(), load.Source{Dir: args[0], Name: name}, args[1])
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "wrote %d declarations of %s to %s\n", u.Qualifying(), u.Name, args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "unit name (default the module path)")
	return cmd
}

func newFeaturesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "List the generator features",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			name := color.New(color.FgCyan, color.Bold)
			for _, f := range gen.AllFeatures {
				name.Fprintf(out, "%-18s", f.Name)
				state := "off"
				if f.Default {
					state = "on"
				}
				fmt.Fprintf(out, " %-4s %-12s %s\n", state, f.Stage, f.Description)
			}
		},
	}
}
