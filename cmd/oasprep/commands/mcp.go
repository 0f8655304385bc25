package commands

import (
	"errors"
	"flag"
	"fmt"

	"github.com/erraggy/oasprep/internal/cliutil"
	"github.com/erraggy/oasprep/internal/mcpserver"
)

// SetupMCPFlags creates the FlagSet for the mcp command. It has no flags;
// the server is configured through OASPREP_* environment variables.
func SetupMCPFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: oasprep mcp\n\n")
		cliutil.Writef(fs.Output(), "Serve the transform and generator_config tools over MCP on stdio.\n\n")
		cliutil.Writef(fs.Output(), "Environment:\n")
		cliutil.Writef(fs.Output(), "  OASPREP_SERVER_URL          URL written to servers[0].url\n")
		cliutil.Writef(fs.Output(), "  OASPREP_PARAMETER           path parameter to strip (default: apiVersion)\n")
		cliutil.Writef(fs.Output(), "  OASPREP_NULL_STYLE          auto, type-array, nullable, or x-nullable\n")
		cliutil.Writef(fs.Output(), "  OASPREP_DANGLING            error or prune\n")
		cliutil.Writef(fs.Output(), "  OASPREP_FETCH_TIMEOUT       timeout for URL specs (default: 30s)\n")
		cliutil.Writef(fs.Output(), "  OASPREP_ALLOW_PRIVATE_IPS   allow URL specs on private networks\n")
		cliutil.Writef(fs.Output(), "  OASPREP_CACHE_ENABLED       cache loaded specs (default: true)\n")
		cliutil.Writef(fs.Output(), "\nExample MCP client entry:\n")
		cliutil.Writef(fs.Output(), "  {\"command\": \"oasprep\", \"args\": [\"mcp\"]}\n")
	}
	return fs
}

// HandleMCP executes the mcp command
func HandleMCP(args []string) error {
	fs := SetupMCPFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return fmt.Errorf("mcp command takes no arguments")
	}

	ctx, cancel := signalContext()
	defer cancel()
	return mcpserver.Run(ctx)
}
