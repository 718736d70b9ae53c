package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javi11/smbvfs/internal/vfs"
)

type copyFlags struct {
	continueOnError bool
}

func (f *copyFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.continueOnError, "continue-on-error", false, "keep copying after a file fails and report every failure")
}

func (f *copyFlags) selector() vfs.FileSelector {
	if f.continueOnError {
		return vfs.ContinueOnError(vfs.SelectAll)
	}
	return vfs.SelectAll
}

// transfer copies src over dst. Either side may be local or remote.
func (a *app) transfer(ctx context.Context, op, src, dst string, flags *copyFlags) error {
	return a.withRetry(ctx, op, func(ctx context.Context) error {
		from, err := a.resolve(ctx, src)
		if err != nil {
			return err
		}
		to, err := a.resolve(ctx, dst)
		if err != nil {
			return err
		}
		from.Refresh()
		to.Refresh()

		if err := to.CopyFrom(ctx, from, flags.selector()); err != nil {
			return err
		}

		a.log.InfoContext(ctx, "Copied", "from", displayName(from), "to", displayName(to))
		return nil
	})
}

func newPutCmd(a *app) *cobra.Command {
	var flags copyFlags

	putCmd := &cobra.Command{
		Use:   "put LOCAL URI",
		Short: "Upload a local file or folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if isSMB(args[0]) || !isSMB(args[1]) {
				return fmt.Errorf("put copies a local path to an smb:// URI")
			}
			return a.transfer(cmd.Context(), "put", args[0], args[1], &flags)
		},
	}

	flags.register(putCmd)

	return putCmd
}

func newGetCmd(a *app) *cobra.Command {
	var flags copyFlags

	getCmd := &cobra.Command{
		Use:   "get URI LOCAL",
		Short: "Download a remote file or folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isSMB(args[0]) || isSMB(args[1]) {
				return fmt.Errorf("get copies an smb:// URI to a local path")
			}
			return a.transfer(cmd.Context(), "get", args[0], args[1], &flags)
		},
	}

	flags.register(getCmd)

	return getCmd
}

func newCpCmd(a *app) *cobra.Command {
	var flags copyFlags

	cpCmd := &cobra.Command{
		Use:   "cp SRC DST",
		Short: "Copy a file or folder",
		Long: `Copy a file or folder. Copies within one share are done by the server
without transferring the content; other copies stream it through this host.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.transfer(cmd.Context(), "cp", args[0], args[1], &flags)
		},
	}

	flags.register(cpCmd)

	return cpCmd
}

func newMvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mv SRC DST",
		Short: "Move or rename a file or folder",
		Long: `Move or rename a file or folder. Moves within one share are renames;
other moves copy then delete the source.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRetry(cmd.Context(), "mv", func(ctx context.Context) error {
				from, err := a.resolve(ctx, args[0])
				if err != nil {
					return err
				}
				to, err := a.resolve(ctx, args[1])
				if err != nil {
					return err
				}
				from.Refresh()
				to.Refresh()

				if err := from.MoveTo(ctx, to); err != nil {
					return err
				}

				a.log.InfoContext(ctx, "Moved", "from", displayName(from), "to", displayName(to))
				return nil
			})
		},
	}
}
