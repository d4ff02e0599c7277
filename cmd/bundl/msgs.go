package bundl

// Command descriptions
const (
	MsgRootShort = "Bundle a web client into a single script"
	MsgRootLong  = `bundl walks the module graph of a client application starting at its
entry, compiles every module through the stage chain its rules select,
links the results into one script with a source map and writes the
artifacts to the output directory.

Configuration is read from bundl.toml (or bundl.yaml) in the project
directory, then BUNDL_* environment variables, then flags.`

	MsgBuildShort = "Build the bundle"
	MsgBuildLong  = `Build compiles the module graph reachable from the entry and writes the
bundle, its pre-minification twin, the source map and any assets.

A failed build writes nothing and leaves earlier output untouched.`
	MsgBuildExample = `  bundl build
  bundl build -p
  bundl build -c web/bundl.toml -o dist
  bundl build ./src/App.fsproj --dry-run`

	MsgConfigShort = "Print the effective configuration"
	MsgConfigLong  = `Config prints the configuration a build would use, after defaults, the
project file, the environment and flags have been applied, as TOML.`

	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
)

// Flag descriptions
const (
	MsgFlagVerbose    = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagFormat     = "Output format: auto, term, text or json"
	MsgFlagProduction = "Build in production mode"
	MsgFlagConfig     = "Configuration file (default: bundl.toml in the working directory)"
	MsgFlagOutput     = "Output directory"
	MsgFlagDryRun     = "Compile and link without writing any file"
)
