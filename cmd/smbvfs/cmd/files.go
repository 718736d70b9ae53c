package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/javi11/smbvfs/internal/vfs"
)

func newLsCmd(a *app) *cobra.Command {
	var long bool

	lsCmd := &cobra.Command{
		Use:   "ls URI",
		Short: "List a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRetry(cmd.Context(), "ls", func(ctx context.Context) error {
				return a.list(ctx, cmd.OutOrStdout(), args[0], long)
			})
		},
	}

	lsCmd.Flags().BoolVarP(&long, "long", "l", false, "show type, size and modification time")

	return lsCmd
}

func (a *app) list(ctx context.Context, out io.Writer, uri string, long bool) error {
	f, err := a.resolveRemote(ctx, uri)
	if err != nil {
		return err
	}
	f.Refresh()

	t, err := f.Type(ctx)
	if err != nil {
		return err
	}

	entries := []vfs.FileObject{f}
	switch t {
	case vfs.Imaginary:
		return fmt.Errorf("%s does not exist", displayName(f))
	case vfs.Folder:
		if entries, err = f.Children(ctx); err != nil {
			return err
		}
	}

	for _, e := range entries {
		if err := printEntry(ctx, out, e, long); err != nil {
			return err
		}
	}
	return nil
}

func printEntry(ctx context.Context, out io.Writer, f vfs.FileObject, long bool) error {
	t, err := f.Type(ctx)
	if err != nil {
		return err
	}

	name := f.Name().BaseName()
	if t == vfs.Folder {
		name += "/"
	}

	if !long {
		_, err = fmt.Fprintln(out, name)
		return err
	}

	size := "-"
	if t == vfs.File {
		n, err := f.Size(ctx)
		if err != nil {
			return err
		}
		size = fmt.Sprint(n)
	}

	modified, err := f.LastModified(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%-6s %12s %s %s\n", t, size, modified.UTC().Format(time.RFC3339), name)
	return err
}

type statResult struct {
	uri      string
	typ      vfs.FileType
	size     int64
	modified time.Time
}

func newStatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stat URI...",
		Short: "Show the metadata of one or more paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []statResult
			err := a.withRetry(cmd.Context(), "stat", func(ctx context.Context) error {
				var err error
				results, err = a.stat(ctx, args)
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.typ == vfs.Imaginary {
					fmt.Fprintf(out, "%s: not found\n", r.uri)
					continue
				}
				fmt.Fprintf(out, "%s: type=%s size=%d modified=%s\n", r.uri, r.typ, r.size, r.modified.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}

// stat queries every URI concurrently. Results keep the order of uris.
func (a *app) stat(ctx context.Context, uris []string) ([]statResult, error) {
	// Resolve first so filesystems are created, and credentials prompted, one at a time.
	files := make([]vfs.FileObject, len(uris))
	for i, uri := range uris {
		f, err := a.resolveRemote(ctx, uri)
		if err != nil {
			return nil, err
		}
		f.Refresh()
		files[i] = f
	}

	results := make([]statResult, len(files))
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(a.config().GetStatWorkers())
	for i, f := range files {
		p.Go(func(ctx context.Context) error {
			r := statResult{uri: displayName(f)}

			t, err := f.Type(ctx)
			if err != nil {
				return err
			}
			r.typ = t

			if t != vfs.Imaginary {
				if r.modified, err = f.LastModified(ctx); err != nil {
					return err
				}
			}
			if t == vfs.File {
				if r.size, err = f.Size(ctx); err != nil {
					return err
				}
			}

			results[i] = r
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func newCatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat URI",
		Short: "Write the content of a file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := a.resolveRemote(ctx, args[0])
			if err != nil {
				return err
			}

			// Only opening is retried, a partially written stdout cannot be replayed.
			var in io.ReadCloser
			err = a.withRetry(ctx, "cat", func(ctx context.Context) error {
				f.Refresh()
				var err error
				in, err = f.InputStream(ctx)
				return err
			})
			if err != nil {
				return err
			}

			_, copyErr := io.Copy(cmd.OutOrStdout(), in)
			closeErr := in.Close()
			if copyErr != nil {
				return fmt.Errorf("failed to read %s: %w", displayName(f), copyErr)
			}
			return closeErr
		},
	}
}

func newMkdirCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir URI",
		Short: "Create a folder and its missing parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRetry(cmd.Context(), "mkdir", func(ctx context.Context) error {
				f, err := a.resolveRemote(ctx, args[0])
				if err != nil {
					return err
				}
				f.Refresh()
				return f.CreateFolder(ctx)
			})
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	var force bool

	rmCmd := &cobra.Command{
		Use:   "rm URI",
		Short: "Delete a file or a folder with its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRetry(cmd.Context(), "rm", func(ctx context.Context) error {
				f, err := a.resolveRemote(ctx, args[0])
				if err != nil {
					return err
				}
				f.Refresh()

				exists, err := f.Exists(ctx)
				if err != nil {
					return err
				}
				if !exists {
					if force {
						return nil
					}
					return fmt.Errorf("%s does not exist", displayName(f))
				}

				if err := f.Delete(ctx); err != nil {
					return err
				}
				a.log.InfoContext(ctx, "Deleted", "uri", displayName(f))
				return nil
			})
		},
	}

	rmCmd.Flags().BoolVarP(&force, "force", "f", false, "do not fail when the path does not exist")

	return rmCmd
}
