// Package cli implements the spiderly command line.
package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly/compiler/gen"
)

// Version is set at build time.
var Version = "dev"

// app holds the persistent flags shared by the commands.
type app struct {
	dir        string
	configPath string
	verbose    bool
	noColor    bool
}

// NewRootCommand creates the spiderly command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "spiderly",
		Short: "Generate API clients, controllers and filters from entity declarations",
		Long: `spiderly reads the entity, DTO, mapper and controller declarations of a Go
module and the modules it references, and generates:

  apiclient/api_client.generated.go           typed client of the API
  controllers/base_controllers.generated.go   chi base controllers
  filtering/paginated_result.generated.go     table filter translation

Settings are read from spiderly.yaml and SPIDERLY_* environment variables.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.noColor {
				color.NoColor = true
			}
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.dir, "dir", "C", ".", "project directory")
	flags.StringVarP(&a.configPath, "config", "c", "", "configuration file (default <dir>/spiderly.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log pipeline decisions")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newGenerateCommand(a),
		newWatchCommand(a),
		newAuditCommand(a),
		newDescribeCommand(a),
		newSnapshotCommand(a),
		newFeaturesCommand(),
	)
	return root
}

// Execute runs the root command and prints the error it fails with.
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

func (a *app) config() (*Config, error) {
	return LoadConfig(a.dir, a.configPath)
}

// logger writes human readable logs to stderr, at debug level with
// --verbose.
func (a *app) logger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = !a.verbose
	if !a.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

var statusColors = map[gen.ArtifactStatus]*color.Color{
	gen.StatusWritten:   color.New(color.FgGreen),
	gen.StatusUnchanged: color.New(color.Faint),
	gen.StatusRemoved:   color.New(color.FgYellow),
	gen.StatusDisabled:  color.New(color.FgCyan),
	gen.StatusFailed:    color.New(color.FgRed, color.Bold),
}

func printReport(w io.Writer, r *gen.Report) {
	for _, a := range r.Artifacts {
		statusColors[a.Status].Fprintf(w, "%-10s", a.Status)
		fmt.Fprintf(w, " %s\n", a.Path)
		if a.Err != nil {
			color.New(color.FgRed).Fprintf(w, "           %v\n", a.Err)
		}
	}
	fmt.Fprintln(w, r.String())
}
