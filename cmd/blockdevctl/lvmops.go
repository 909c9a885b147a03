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

package main

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/blockdevkit/blockdev/lvm"
	"github.com/blockdevkit/blockdev/progress"
)

// newLVMCallCmd exposes lvm.Client.Call directly: the adapter itself is a
// generic method dispatcher (spec.md §4.4.2), so the CLI's one LVM
// subcommand mirrors that shape rather than hand-rolling a command per
// Manager/Pv/Vg/Lv method.
func newLVMCallCmd() *cobra.Command {
	var params []string
	var lockConfig bool
	cmd := &cobra.Command{
		Use:   "lvm-call <path> <interface> <method>",
		Short: "Issue one lvmdbus1 method call, polling any resulting Job to completion",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			bus, err := lvm.DialSystemBus()
			if err != nil {
				return fmt.Errorf("dial system bus: %w", err)
			}
			client := lvm.NewClient(bus, lvm.NewConfig(), progress.NewLoggingReporter())

			ps := make([]interface{}, len(params))
			for i, p := range params {
				ps[i] = p
			}

			result, err := client.Call(cmd.Context(), args[2], dbus.ObjectPath(args[0]), args[1], args[2], ps, nil, lockConfig)
			if err != nil {
				return err
			}
			fmt.Println(result)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&params, "param", nil, "Method parameter (repeatable, string-typed).")
	cmd.Flags().BoolVar(&lockConfig, "lock-config", false, "Serialise this call on the process-wide LVM config mutex.")
	return cmd
}
