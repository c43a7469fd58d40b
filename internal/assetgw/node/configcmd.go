/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// ConfigCmd returns the cobra command that prints the effective
// configuration after defaults and environment overrides are applied.
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Prints the effective configuration.",
		Long:  `Prints the configuration the gateway would start with, including defaults and environment overrides.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return errors.New("trailing args detected")
			}
			cmd.SilenceUsage = true

			config, err := Load(configFile)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(config)
			if err != nil {
				return errors.Wrap(err, "failed to render configuration")
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	addConfigFlag(cmd)
	return cmd
}
