package app

import "github.com/spf13/pflag"

// RegisterGlobalFlags registers the flags shared by all commands
func RegisterGlobalFlags(flags *pflag.FlagSet) {
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("color", "", "Colored output: auto, always or never")
}

// RegisterSearchFlags registers the flags of the search command
func RegisterSearchFlags(flags *pflag.FlagSet) {
	flags.BoolP("console", "c", false, "Print results to the console instead of exporting them")
	flags.BoolP("recursive", "r", false, "Scan subdirectories of INPUT")
	registerExportFlags(flags)
}

// RegisterServeFlags registers the flags of the serve command
func RegisterServeFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.String("root", "", "Directory that tool input and output paths are resolved against")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")
	registerExportFlags(flags)
}

// RegisterPolicyInitFlags registers the flags of the policy init command
func RegisterPolicyInitFlags(flags *pflag.FlagSet) {
	flags.BoolP("force", "f", false, "Overwrite an existing policy file")
}

func registerExportFlags(flags *pflag.FlagSet) {
	flags.Bool("manifest", false, "Write export.yaml next to results.csv")
	flags.Bool("sqlite", false, "Also store the exported hits in results.db")
}
