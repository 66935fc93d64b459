package main

import (
	"context"
	"os"

	"github.com/sha1n/pagesearch/internal/app"
	"github.com/spf13/cobra"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "pagesearch"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	return ExecuteWithParams(app.DefaultRunParams(), version, build, programName, args)
}

// ExecuteWithParams builds the command tree on top of the given runner
// dependencies and executes it.
func ExecuteWithParams(params app.RunParams, version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Search PAGE layout documents and export the matches",
		Long:         "Searches the text lines of PAGE XML documents for exact substrings and either prints the hits or copies the matching documents, renumbered, into an output directory together with a results.csv table.",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(`{{.Version}} (` + build + `)
`)
	app.RegisterGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newSearchCmd(params),
		newCSV2TxtCmd(params),
		newPolicyCmd(params),
		newServeCmd(params, version),
	)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

func newSearchCmd(params app.RunParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [-c] [-r] SEARCH INPUT [OUTPUT]",
		Short: "Search documents for the terms listed in SEARCH",
		Long: `Searches every document in INPUT for the terms in the SEARCH file (one term
per line, lines starting with '#' are comments). Without --console the matching
documents and their sibling files are copied to OUTPUT under sequential ids and
the hits are written to OUTPUT/results.csv.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			console, _ := flags.GetBool("console")
			recursive, _ := flags.GetBool("recursive")

			searchArgs := app.SearchArgs{
				SearchFile: args[0],
				Input:      args[1],
				Console:    console,
				Recursive:  recursive,
			}
			if len(args) == 3 {
				searchArgs.Output = args[2]
			}
			return app.RunSearch(context.Background(), params, flags, searchArgs)
		},
	}
	app.RegisterSearchFlags(cmd.Flags())
	return cmd
}

func newCSV2TxtCmd(params app.RunParams) *cobra.Command {
	return &cobra.Command{
		Use:   "csv2txt INPUT OUTPUT",
		Short: "Extract the first column of a CSV file into a search term file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunCSV2Txt(params, cmd.Flags(), args[0], args[1])
		},
	}
}

func newPolicyCmd(params app.RunParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage the export policy in pagesearch.toml",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return app.RunPolicyInit(params, cmd.Flags(), force)
		},
	}
	app.RegisterPolicyInitFlags(initCmd.Flags())

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunPolicyShow(params, cmd.Flags())
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func newServeCmd(params app.RunParams, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve search and export as MCP tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunServe(context.Background(), params, cmd.Flags(), version)
		},
	}
	app.RegisterServeFlags(cmd.Flags())
	return cmd
}
