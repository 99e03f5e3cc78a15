// Command stroll manages issuer keys, anonymous credentials and signed
// location requests. Every flag can also be set in a configuration file or
// through an environment variable prefixed with STROLL_, e.g. STROLL_PK.
package main

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	atopet "github.com/intx4/Atopet"
)

const envPrefix = "STROLL"

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "stroll",
		Short:         "Anonymous credentials for location requests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configure(v, cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "configuration file")
	flags.String("log-level", "info", "log level")
	flags.String("pk", "pk.cbor", "issuer public key file")

	root.AddCommand(
		keygenCmd(v),
		requestCmd(v),
		issueCmd(v),
		obtainCmd(v),
		registerCmd(v),
		showCmd(v),
		verifyCmd(v),
	)
	return root
}

func configure(v *viper.Viper, cmd *cobra.Command) error {
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	level, err := logrus.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return err
	}
	atopet.Logger.SetLevel(level)
	return nil
}

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		atopet.Logger.Error(err)
		os.Exit(1)
	}
}
