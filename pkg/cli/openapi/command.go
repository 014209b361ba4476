// Package openapi provides the "openapi" CLI command that renders the catalog API document.
package openapi

import (
	"fmt"
	"io"
	"strings"

	"github.com/neeprokriti/catalog-server/pkg/config"
	"github.com/neeprokriti/catalog-server/pkg/observability/logger"
	serveropenapi "github.com/neeprokriti/catalog-server/pkg/server/openapi"
	"github.com/neeprokriti/catalog-server/pkg/server/router"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// StdoutPath selects standard output instead of a file.
const StdoutPath = "-"

// ConfigLoader loads the service config using command flags.
type ConfigLoader func(flags *pflag.FlagSet) (*config.Config, logger.Logger, error)

// CommandOptions configures the OpenAPI command tree.
type CommandOptions struct {
	RegisterRoutes func(r router.Router, cfg *config.Config)
	LoadConfig     ConfigLoader
	ServiceName    string
	ServiceVersion string
	// Stdout defaults to the command output stream.
	Stdout io.Writer
}

// NewCommand creates the "openapi" command and its subcommands. It returns nil when
// routes or config cannot be resolved.
func NewCommand(opts CommandOptions) *cobra.Command {
	if opts.RegisterRoutes == nil || opts.LoadConfig == nil {
		return nil
	}

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "OpenAPI document commands",
	}

	var outputPath string
	var format string
	var titleOverride string
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the OpenAPI document of the catalog routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stdout := opts.Stdout
			if stdout == nil {
				stdout = cmd.OutOrStdout()
			}
			return runGenerate(cmd.Flags(), stdout, opts, generateParams{
				output: outputPath,
				format: format,
				title:  titleOverride,
			})
		},
	}
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "openapi.generated.yaml", `output file path (.yaml or .json), or "-" for stdout`)
	generateCmd.Flags().StringVar(&format, "format", "yaml", "stdout format: yaml or json")
	generateCmd.Flags().StringVar(&titleOverride, "title", "", "OpenAPI title override")
	cmd.AddCommand(generateCmd)

	return cmd
}

type generateParams struct {
	output string
	format string
	title  string
}

func runGenerate(flags *pflag.FlagSet, stdout io.Writer, opts CommandOptions, params generateParams) error {
	cfg, _, err := opts.LoadConfig(flags)
	if err != nil {
		return err
	}

	routes := serveropenapi.CollectRoutes(func(r router.Router) {
		opts.RegisterRoutes(r, cfg)
	})
	if len(routes) == 0 {
		return fmt.Errorf("no routes were registered, cannot generate OpenAPI document")
	}

	spec := serveropenapi.BuildSpec(resolveTitle(params.title, cfg, opts.ServiceName), strings.TrimSpace(opts.ServiceVersion), routes)

	if strings.TrimSpace(params.output) == StdoutPath {
		data, err := serveropenapi.Marshal(spec, params.format)
		if err != nil {
			return fmt.Errorf("marshal openapi spec: %w", err)
		}
		_, err = stdout.Write(data)
		return err
	}

	if err := serveropenapi.WriteSpec(params.output, spec); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "✓ OpenAPI spec generated at %s (%d routes)\n", params.output, len(routes))
	return nil
}

func resolveTitle(override string, cfg *config.Config, serviceName string) string {
	if title := strings.TrimSpace(override); title != "" {
		return title
	}
	if cfg != nil {
		if title := strings.TrimSpace(cfg.Service.Name); title != "" {
			return title
		}
	}
	return strings.TrimSpace(serviceName)
}
