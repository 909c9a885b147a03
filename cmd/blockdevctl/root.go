// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command blockdevctl is a thin cobra CLI exercising the blockdev library,
// in the shape of the teacher's cmd/root.go: persistent flags bound
// through cfg.BindFlags, cobra.OnInitialize loading an optional config
// file, and one subcommand per dispatcher operation. It is a sample
// driver, not the library's deliverable surface (SPEC_FULL.md §4).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blockdevkit/blockdev/cfg"
	"github.com/blockdevkit/blockdev/internal/logger"
)

var (
	v       = viper.New()
	config  cfg.Config
	cfgFile string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "blockdevctl",
		Short:         "Typed CLI over the blockdev filesystem and LVM façade",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML config file.")
	if err := cfg.BindFlags(v, root.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("blockdevctl: bind flags: %v", err))
	}

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				fmt.Fprintf(os.Stderr, "blockdevctl: reading config %s: %v\n", cfgFile, err)
				os.Exit(1)
			}
		}
		if err := v.Unmarshal(&config, viper.DecodeHook(cfg.DecodeHook())); err != nil {
			fmt.Fprintf(os.Stderr, "blockdevctl: decoding config: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.ValidateConfig(&config); err != nil {
			fmt.Fprintf(os.Stderr, "blockdevctl: invalid config: %v\n", err)
			os.Exit(1)
		}
		logger.Init(logger.ParseSeverity(string(config.Logging.Severity)), string(config.Logging.Format))
	})

	root.AddCommand(
		newMkfsCmd(),
		newResizeCmd(),
		newCheckCmd(),
		newRepairCmd(),
		newLabelCmd(),
		newUUIDCmd(),
		newInfoCmd(),
		newSizeCmd(),
		newWipeCmd(),
		newCleanCmd(),
		newFreezeCmd(),
		newUnfreezeCmd(),
		newLVMCallCmd(),
	)

	return root
}

// Execute runs the blockdevctl command tree, matching the teacher's
// cmd.Execute() entry point shape.
func Execute() error {
	return newRootCmd().Execute()
}

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
