// Package commands provides CLI command handlers for oasprep.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/erraggy/oasprep"
	"github.com/erraggy/oasprep/config"
	"github.com/erraggy/oasprep/fetcher"
	"github.com/erraggy/oasprep/genconfig"
	"github.com/erraggy/oasprep/internal/cliutil"
	"go.yaml.in/yaml/v4"
)

// Output format constants
const (
	FormatJSON = config.FormatJSON
	FormatYAML = config.FormatYAML
)

// StdoutPath is the output path that selects standard output.
const StdoutPath = "-"

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s", format, FormatJSON, FormatYAML)
	}
	return nil
}

// OutputStructured writes data to w in the specified format (json or yaml).
func OutputStructured(w io.Writer, data any, format string) error {
	var out []byte
	var err error

	switch format {
	case FormatJSON:
		out, err = genconfig.MarshalIndentJSON(data)
	case FormatYAML:
		out, err = marshalYAML(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}
	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}

	_, err = w.Write(out)
	return err
}

func marshalYAML(data any) ([]byte, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// FormatSpecPath returns a display-friendly path for the specification.
func FormatSpecPath(specPath string) string {
	if specPath == fetcher.StdinSource {
		return "<stdin>"
	}
	return specPath
}

// NewLogger returns the diagnostic logger: slog text on w at Info, Debug when
// verbose, and nothing when quiet.
func NewLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	if quiet {
		return slog.New(slog.DiscardHandler)
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// LoadConfig reads the configuration file. An explicit path must exist; with
// no path, oasprep.yaml in the working directory is used when present.
func LoadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		c, err := config.Load(path)
		return c, path, err
	}
	c, found, err := config.LoadOrDefault(config.DefaultFileName)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return c, "", nil
	}
	return c, config.DefaultFileName, nil
}

// signalContext returns a context cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// outputHeader writes the common diagnostic header to w.
func outputHeader(w io.Writer, title, specPath string) {
	cliutil.Writef(w, "%s\n", title)
	cliutil.Writef(w, "%s\n\n", strings.Repeat("=", len(title)))
	cliutil.Writef(w, "oasprep version: %s\n", oasprep.Version())
	if specPath != "" {
		cliutil.Writef(w, "Specification: %s\n", FormatSpecPath(specPath))
	}
}

// stringList is a repeatable string flag. Values may also be comma separated.
type stringList []string

func (s *stringList) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}
