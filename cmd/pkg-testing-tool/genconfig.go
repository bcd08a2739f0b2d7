package main

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/config"
	"github.com/fff7d1bc/pkg-testing-tools/pkg/errors"
)

var genConfigResolved bool

var genConfigCmd = &cobra.Command{
	Use:   "genconfig",
	Short: MsgGenConfigShort,
	Long: `Print a configuration file to stdout, ready to be saved as
` + config.SystemConfigPath + `.

By default the annotated built-in defaults are printed. With
--resolved, the effective configuration after file and environment
layering is marshaled instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !genConfigResolved {
			fmt.Print(config.GetDefaultConfigContent())
			return nil
		}

		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}

		out, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to marshal configuration")
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	genConfigCmd.Flags().BoolVar(&genConfigResolved, "resolved", false, "Print the effective configuration instead of the defaults")
}
