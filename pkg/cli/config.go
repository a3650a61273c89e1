package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// applyConfigFile layers luapack.toml under the command line: a value
// from the file only applies when its flag was not set explicitly. A
// missing default config file is fine; a missing --config file is not.
func applyConfigFile(cmd *cobra.Command, flags *buildFlags) error {
	v := viper.New()
	v.SetConfigType("toml")
	if flags.configPath != "" {
		v.SetConfigFile(flags.configPath)
	} else {
		v.SetConfigName("luapack")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if flags.configPath == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	changed := cmd.Flags().Changed
	if !changed("outfile") && v.IsSet("outfile") {
		flags.outfile = v.GetString("outfile")
	}
	if !changed("define") && v.IsSet("define") {
		flags.defines = v.GetStringSlice("define")
	}
	if !changed("mangle") && v.IsSet("mangle") {
		flags.mangle = v.GetString("mangle")
	}
	if !changed("mangle-sentinel") && v.IsSet("mangle-sentinel") {
		flags.mangleSentinel = v.GetString("mangle-sentinel")
	}
	if !changed("mangle-alphabet") && v.IsSet("mangle-alphabet") {
		flags.mangleAlphabet = v.GetString("mangle-alphabet")
	}
	if !changed("mangle-metamethods") && v.IsSet("mangle-metamethods") {
		flags.mangleMetamethods = v.GetBool("mangle-metamethods")
	}
	if !changed("minify-whitespace") && v.IsSet("minify-whitespace") {
		flags.minifyWhitespace = v.GetBool("minify-whitespace")
	}
	if !changed("metafile") && v.IsSet("metafile") {
		flags.metafile = v.GetString("metafile")
	}
	if !changed("log-level") && v.IsSet("log-level") {
		flags.logLevel = v.GetString("log-level")
	}
	if !changed("color") && v.IsSet("color") {
		flags.color = v.GetString("color")
	}
	if !changed("error-limit") && v.IsSet("error-limit") {
		flags.errorLimit = v.GetInt("error-limit")
	}
	return nil
}
