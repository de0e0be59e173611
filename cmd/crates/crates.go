// Package cratescmder assembles the crates root command.
package cratescmder

import (
	"github.com/spf13/cobra"

	clearcmder "github.com/papercomputeco/crates/cmd/crates/clear"
	configcmder "github.com/papercomputeco/crates/cmd/crates/config"
	indexcmder "github.com/papercomputeco/crates/cmd/crates/index"
	initcmder "github.com/papercomputeco/crates/cmd/crates/init"
	logincmder "github.com/papercomputeco/crates/cmd/crates/login"
	logoutcmder "github.com/papercomputeco/crates/cmd/crates/logout"
	registercmder "github.com/papercomputeco/crates/cmd/crates/register"
	reposcmder "github.com/papercomputeco/crates/cmd/crates/repos"
	searchcmder "github.com/papercomputeco/crates/cmd/crates/search"
	selectcmder "github.com/papercomputeco/crates/cmd/crates/select"
	servecmder "github.com/papercomputeco/crates/cmd/crates/serve"
	showcmder "github.com/papercomputeco/crates/cmd/crates/show"
	statuscmder "github.com/papercomputeco/crates/cmd/crates/status"
	tokencmder "github.com/papercomputeco/crates/cmd/crates/token"
	treecmder "github.com/papercomputeco/crates/cmd/crates/tree"
	versioncmder "github.com/papercomputeco/crates/cmd/crates/version"
)

const cratesLongDesc string = `Crates indexes GitHub repositories into a vector store and searches them
semantically.

Typical flow:
  crates register               Create a local account
  crates login                  Start a session
  crates token                  Store a GitHub token
  crates select owner/repo      Pick the working repository
  crates index                  Embed and store its files
  crates search "query text"    Find the most relevant files

Run 'crates serve' to expose the same search over HTTP and MCP.`

const cratesShortDesc string = "Crates - semantic search over GitHub repositories"

// subcommands is the static, ordered registry of subcommand constructors.
// Adding a command means adding its constructor here.
var subcommands = []func() *cobra.Command{
	registercmder.NewRegisterCmd,
	logincmder.NewLoginCmd,
	logoutcmder.NewLogoutCmd,
	tokencmder.NewTokenCmd,
	reposcmder.NewReposCmd,
	selectcmder.NewSelectCmd,
	indexcmder.NewIndexCmd,
	searchcmder.NewSearchCmd,
	clearcmder.NewClearCmd,
	showcmder.NewShowCmd,
	treecmder.NewTreeCmd,
	statuscmder.NewStatusCmd,
	configcmder.NewConfigCmd,
	initcmder.NewInitCmd,
	servecmder.NewServeCmd,
	versioncmder.NewVersionCmd,
}

func NewCratesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crates",
		Short: cratesShortDesc,
		Long:  cratesLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .crates/ config directory")

	for _, newSubCmd := range subcommands {
		cmd.AddCommand(newSubCmd())
	}

	return cmd
}
