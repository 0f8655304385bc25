package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/erraggy/oasprep"
	"github.com/erraggy/oasprep/cmd/oasprep/commands"
)

// commandNames lists the subcommands, in the order printUsage shows them.
var commandNames = []string{"transform", "fetch", "config", "mcp", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version", "--version":
		printVersion(os.Stdout)
	case "help", "-h", "--help":
		printUsage()
	case "transform":
		err = commands.HandleTransform(args)
	case "fetch":
		err = commands.HandleFetch(args)
	case "config":
		err = commands.HandleConfig(args)
	case "mcp":
		err = commands.HandleMCP(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if s := suggestCommand(command); s != "" {
			fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", s)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// suggestCommand returns the closest command name within edit distance 2,
// or "" when nothing is close enough.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := editDistance(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// editDistance is the Levenshtein distance between a and b.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func printUsage() {
	fmt.Println(`oasprep - prepare OpenAPI documents for code generation

Usage:
  oasprep <command> [options]

Commands:
  transform   Fetch a document and run the preparation pipeline
  fetch       Download a document without changing it
  config      Print, check, or create the configuration file
  mcp         Serve the pipeline as MCP tools over stdio
  version     Show version information
  help        Show this help message

Examples:
  oasprep transform
  oasprep transform --server-url http://localhost:4010/v4/ -o openapi.json
  oasprep fetch -o linode.json
  oasprep config --generators --format json

Run 'oasprep <command> --help' for more information on a command.`)
}

func printVersion(w io.Writer) {
	v := oasprep.Version()
	if v != "dev" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	_, _ = fmt.Fprintf(w, "oasprep %s\n%s\n", v, oasprep.BuildInfo())
}
