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

	"github.com/spf13/cobra"

	"github.com/blockdevkit/blockdev/fs"
)

func familyFlag(cmd *cobra.Command) *string {
	return cmd.Flags().String("fstype", "", "Filesystem family (ext4, xfs, vfat, ...); probed when omitted.")
}

func newMkfsCmd() *cobra.Command {
	var opts fs.MkfsOptions
	cmd := &cobra.Command{
		Use:   "mkfs <device>",
		Short: "Create a filesystem on a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fstype, _ := cmd.Flags().GetString("fstype")
			if fstype == "" {
				return fmt.Errorf("mkfs requires --fstype")
			}
			return newDispatcher().Mkfs(cmd.Context(), args[0], fs.Family(fstype), opts, nil)
		},
	}
	familyFlag(cmd)
	cmd.Flags().StringVar(&opts.Label, "label", "", "Filesystem label.")
	cmd.Flags().StringVar(&opts.UUID, "uuid", "", "Filesystem UUID.")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Don't actually write anything.")
	cmd.Flags().BoolVar(&opts.NoDiscard, "no-discard", false, "Skip device discard/TRIM.")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Force creation on a device that looks in use.")
	return cmd
}

func newResizeCmd() *cobra.Command {
	var newSize uint64
	cmd := &cobra.Command{
		Use:   "resize <device>",
		Short: "Resize a filesystem (0 fits the device)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fstype, _ := cmd.Flags().GetString("fstype")
			return newDispatcher().Resize(cmd.Context(), args[0], fs.Family(fstype), newSize, nil)
		},
	}
	familyFlag(cmd)
	cmd.Flags().Uint64Var(&newSize, "size", 0, "New size in bytes (0 fits the device).")
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <device>",
		Short: "Check a filesystem for consistency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fstype, _ := cmd.Flags().GetString("fstype")
			res, err := newDispatcher().Check(cmd.Context(), args[0], fs.Family(fstype), nil)
			if err != nil {
				return err
			}
			if res == fs.Dirty {
				fmt.Println("dirty")
			} else {
				fmt.Println("clean")
			}
			return nil
		},
	}
	familyFlag(cmd)
	return cmd
}

func newRepairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair <device>",
		Short: "Repair a filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fstype, _ := cmd.Flags().GetString("fstype")
			return newDispatcher().Repair(cmd.Context(), args[0], fs.Family(fstype), nil)
		},
	}
	familyFlag(cmd)
	return cmd
}

func newLabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label <device> <label>",
		Short: "Set a filesystem's label",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fstype, _ := cmd.Flags().GetString("fstype")
			return newDispatcher().SetLabel(cmd.Context(), args[0], args[1], fs.Family(fstype))
		},
	}
	familyFlag(cmd)
	return cmd
}

func newUUIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uuid <device> [uuid]",
		Short: "Set a filesystem's UUID (omit uuid to generate a random one)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fstype, _ := cmd.Flags().GetString("fstype")
			var uuid string
			if len(args) == 2 {
				uuid = args[1]
			}
			return newDispatcher().SetUUID(cmd.Context(), args[0], uuid, fs.Family(fstype))
		},
	}
	familyFlag(cmd)
	return cmd
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <device>",
		Short: "Print filesystem metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fstype, _ := cmd.Flags().GetString("fstype")
			info, err := newDispatcher().GetInfo(cmd.Context(), args[0], fs.Family(fstype))
			if err != nil {
				return err
			}
			fmt.Printf("%+v\n", info)
			return nil
		},
	}
	familyFlag(cmd)
	return cmd
}

func newSizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "size <device>",
		Short: "Print filesystem size and free space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fstype, _ := cmd.Flags().GetString("fstype")
			d := newDispatcher()
			size, err := d.GetSize(cmd.Context(), args[0], fs.Family(fstype))
			if err != nil {
				return err
			}
			free, err := d.GetFreeSpace(cmd.Context(), args[0], fs.Family(fstype))
			if err != nil {
				return err
			}
			fmt.Printf("size=%d free=%d\n", size, free)
			return nil
		},
	}
	familyFlag(cmd)
	return cmd
}

func newWipeCmd() *cobra.Command {
	var all, force bool
	cmd := &cobra.Command{
		Use:   "wipe <device>",
		Short: "Wipe filesystem/partition signatures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newDispatcher().Wipe(cmd.Context(), args[0], all, force)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Wipe every signature, not just the first.")
	cmd.Flags().BoolVar(&force, "force", false, "Open without O_EXCL.")
	return cmd
}

func newCleanCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "clean <device>",
		Short: "Wipe all signatures, succeeding even if there were none",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newDispatcher().Clean(cmd.Context(), args[0], force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Open without O_EXCL.")
	return cmd
}

func newFreezeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "freeze <mountpoint>",
		Short: "Freeze a mounted filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newDispatcher().Freeze(cmd.Context(), args[0])
		},
	}
}

func newUnfreezeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfreeze <mountpoint>",
		Short: "Thaw a frozen filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newDispatcher().Unfreeze(cmd.Context(), args[0])
		},
	}
}
