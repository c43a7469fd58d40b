/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"

	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/node"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// The main command describes the service and
// defaults to printing the help message.
var mainCmd = &cobra.Command{
	Use:   version.ProgramName,
	Short: "REST gateway for asset transactions on a Fabric channel.",
}

var loggingSpec string

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&loggingSpec, "logging-spec", "", "logging specification; overrides logging.spec and "+flogging.SpecEnvVar)
}

func main() {
	addGlobalFlags(mainCmd.PersistentFlags())
	mainCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if loggingSpec == "" {
			return nil
		}
		// ASSETGW_LOGGING_SPEC is also the environment override of logging.spec
		return os.Setenv(flogging.SpecEnvVar, loggingSpec)
	}

	mainCmd.AddCommand(version.Cmd())
	mainCmd.AddCommand(node.Cmd())
	mainCmd.AddCommand(node.ConfigCmd())

	// On failure Cobra prints the usage message and error string, so we only
	// need to exit with a non-0 status
	if mainCmd.Execute() != nil {
		os.Exit(1)
	}
}
