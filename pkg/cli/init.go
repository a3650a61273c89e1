package cli

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// starterConfig mirrors the build flag surface. Field order is the order
// keys appear in the generated file.
type starterConfig struct {
	Outfile           string   `toml:"outfile,omitempty"`
	Define            []string `toml:"define,omitempty"`
	Mangle            string   `toml:"mangle"`
	MangleSentinel    string   `toml:"mangle-sentinel"`
	MangleAlphabet    string   `toml:"mangle-alphabet"`
	MangleMetamethods bool     `toml:"mangle-metamethods"`
	MinifyWhitespace  bool     `toml:"minify-whitespace"`
	Metafile          string   `toml:"metafile,omitempty"`
	LogLevel          string   `toml:"log-level"`
	Color             string   `toml:"color"`
	ErrorLimit        int      `toml:"error-limit"`
}

func defaultStarterConfig() starterConfig {
	return starterConfig{
		Mangle:         "off",
		MangleSentinel: "__",
		MangleAlphabet: "wide",
		LogLevel:       "info",
		Color:          "auto",
		ErrorLimit:     10,
	}
}

const starterHeader = `# luapack configuration. Command-line flags override these values.
# Remove the keys you do not need; missing keys use their defaults.

`

func writeStarterConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	contents, err := toml.Marshal(defaultStarterConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(starterHeader), contents...), 0644)
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter luapack.toml in the working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeStarterConfig("luapack.toml"); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote luapack.toml")
			return nil
		},
	}
}
