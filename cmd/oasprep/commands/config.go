package commands

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/erraggy/oasprep/config"
	"github.com/erraggy/oasprep/genconfig"
	"github.com/erraggy/oasprep/internal/cliutil"
	"github.com/erraggy/oasprep/internal/fileutil"
)

// ConfigFlags contains flags for the config command
type ConfigFlags struct {
	Config     string
	Format     string
	Generators bool
	Init       bool
	Force      bool
	Validate   bool
}

// SetupConfigFlags creates and configures a FlagSet for the config command.
// Returns the FlagSet and a ConfigFlags struct with bound flag variables.
func SetupConfigFlags() (*flag.FlagSet, *ConfigFlags) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	flags := &ConfigFlags{}

	fs.StringVar(&flags.Config, "c", "", "configuration file (default: ./oasprep.yaml when present)")
	fs.StringVar(&flags.Config, "config", "", "configuration file (default: ./oasprep.yaml when present)")
	fs.StringVar(&flags.Format, "format", FormatYAML, "output format: yaml or json")
	fs.BoolVar(&flags.Generators, "generators", false, "print the kubb and openapi-ts generator configurations")
	fs.BoolVar(&flags.Init, "init", false, "write the default configuration file")
	fs.BoolVar(&flags.Force, "force", false, "with --init, overwrite an existing file")
	fs.BoolVar(&flags.Validate, "validate", false, "only check the configuration file")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: oasprep config [flags]\n\n")
		cliutil.Writef(fs.Output(), "Print, check, or create the oasprep configuration.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  oasprep config\n")
		cliutil.Writef(fs.Output(), "  oasprep config --format json -c ci/oasprep.yaml\n")
		cliutil.Writef(fs.Output(), "  oasprep config --generators --format json\n")
		cliutil.Writef(fs.Output(), "  oasprep config --init\n")
		cliutil.Writef(fs.Output(), "  oasprep config --validate -c oasprep.yaml\n")
		cliutil.Writef(fs.Output(), "\nExit Codes:\n")
		cliutil.Writef(fs.Output(), "  0    Success\n")
		cliutil.Writef(fs.Output(), "  1    The configuration is invalid or could not be written\n")
	}

	return fs, flags
}

// HandleConfig executes the config command
func HandleConfig(args []string) error {
	fs, flags := SetupConfigFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 0 {
		fs.Usage()
		return fmt.Errorf("config command takes no arguments")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	if flags.Init {
		return initConfig(flags)
	}

	cfg, path, err := LoadConfig(flags.Config)
	if err != nil {
		return err
	}

	if flags.Validate {
		if path == "" {
			path = "(defaults)"
		}
		cliutil.Writef(os.Stdout, "✓ Configuration valid: %s\n", path)
		return nil
	}

	if flags.Generators {
		set := cfg.Generators
		if set == nil {
			set = genconfig.Defaults(cfg.Output)
		}
		return OutputStructured(os.Stdout, generatorView{Kubb: set.Kubb, OpenAPITS: set.OpenAPITS}, flags.Format)
	}

	if flags.Format == FormatYAML {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	return OutputStructured(os.Stdout, cfg, flags.Format)
}

// generatorView is the printed form of a generator set.
type generatorView struct {
	Kubb      *genconfig.Kubb      `yaml:"kubb,omitempty" json:"kubb,omitempty"`
	OpenAPITS *genconfig.OpenAPITS `yaml:"openapi_ts,omitempty" json:"openapi_ts,omitempty"`
}

func initConfig(flags *ConfigFlags) error {
	path := flags.Config
	if path == "" {
		path = config.DefaultFileName
	}
	if _, err := os.Stat(path); err == nil && !flags.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := fileutil.RejectSymlink(path); err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Generators = genconfig.Defaults(cfg.Output)
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, fileutil.ReadableByAll); err != nil {
		return err
	}
	cliutil.Writef(os.Stderr, "Configuration written to: %s\n", path)
	return nil
}
