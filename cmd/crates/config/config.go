// Package configcmder provides the config command for managing persistent
// crates configuration stored in the .crates/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent crates configuration.

Configuration is stored as config.toml in the .crates/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen, client.api_target, github.target,
  vector_store.provider, vector_store.target,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  index.batch_size, index.max_file_bytes, search.limit,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  crates config set <key> <value>    Set a configuration value
  crates config get <key>            Get a configuration value
  crates config list                 List all configuration values

Examples:
  crates config set vector_store.provider qdrant
  crates config set embedding.model nomic-embed-text
  crates config get vector_store.provider
  crates config list`

const configShortDesc string = "Manage persistent crates configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
