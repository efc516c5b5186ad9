package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/slotmap/arena"
	"github.com/hupe1980/slotmap/blobstore"
	"github.com/hupe1980/slotmap/snapshot"
)

type snapshotFlags struct {
	dir         string
	namespace   string
	compression string
}

func (c *cli) newSnapshotCmd() *cobra.Command {
	var sf snapshotFlags

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, restore and prune arena snapshots",
		Long: `The snapshot commands copy the whole arena file into a snapshot directory
and back. Snapshots are chunked, compressed and checksummed; restore checks
every recorded bitmap before overwriting the arena.

Example:
  slotctl snapshot save -f pool.arena --dir /backups
  slotctl snapshot list --dir /backups --namespace pool
  slotctl snapshot restore -f pool.arena --dir /backups
  slotctl snapshot prune --dir /backups --namespace pool --keep 3`,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&sf.dir, "dir", "", "Snapshot directory")
	pf.StringVar(&sf.namespace, "namespace", "", "Snapshot namespace (default: arena file name)")
	pf.StringVar(&sf.compression, "compression", "zstd", "Chunk compression: none|lz4|zstd")
	_ = cmd.MarkPersistentFlagRequired("dir")

	var keep int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete old snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshotPrune(cmd.Context(), sf, keep)
		},
	}
	prune.Flags().IntVar(&keep, "keep", 1, "Number of snapshots to keep")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "save",
			Short: "Save a snapshot of the arena file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runSnapshotSave(cmd.Context(), sf)
			},
		},
		&cobra.Command{
			Use:   "restore [ID]",
			Short: "Restore the current (or given) snapshot into the arena file",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runSnapshotRestore(cmd.Context(), sf, args)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List snapshots, oldest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runSnapshotList(cmd.Context(), sf)
			},
		},
		prune,
	)
	return cmd
}

func (c *cli) snapshotter(sf snapshotFlags) (*snapshot.Snapshotter, error) {
	comp, err := snapshot.ParseCompression(sf.compression)
	if err != nil {
		return nil, err
	}
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}

	ns := sf.namespace
	if ns == "" {
		ns = strings.TrimSuffix(filepath.Base(c.file), filepath.Ext(c.file))
	}

	return snapshot.New(blobstore.NewLocalStore(sf.dir), ns,
		snapshot.WithCompression(comp),
		snapshot.WithLogger(logger),
	), nil
}

// withArena maps the existing arena file for fn and syncs it afterwards.
func (c *cli) withArena(fn func(a *arena.Arena) error) (err error) {
	if _, err := os.Stat(c.file); err != nil {
		return fmt.Errorf("open arena: %w", err)
	}
	a, err := c.openArena(0)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Sync(), a.Close())
	}()
	return fn(a)
}

func (c *cli) runSnapshotSave(ctx context.Context, sf snapshotFlags) error {
	snap, err := c.snapshotter(sf)
	if err != nil {
		return err
	}
	g, err := c.parseGeometry()
	if err != nil {
		return err
	}

	return c.withArena(func(a *arena.Arena) error {
		if _, err := a.Handle(c.offset, g); err != nil {
			return err
		}
		m, err := snap.Save(ctx, a)
		if err != nil {
			return err
		}
		if c.jsonOut {
			return c.printJSON(m)
		}
		c.printf("saved %s (%d bytes, %d slots allocated)\n", m.ID, m.BlobSize, m.Allocated())
		return nil
	})
}

func (c *cli) runSnapshotRestore(ctx context.Context, sf snapshotFlags, args []string) error {
	snap, err := c.snapshotter(sf)
	if err != nil {
		return err
	}

	return c.withArena(func(a *arena.Arena) error {
		var (
			m   *snapshot.Manifest
			err error
		)
		if len(args) == 1 {
			m, err = snap.RestoreID(ctx, a, args[0])
		} else {
			m, err = snap.Restore(ctx, a)
		}
		if err != nil {
			return err
		}
		if c.jsonOut {
			return c.printJSON(m)
		}
		c.printf("restored %s (%d region(s), %d slots allocated)\n", m.ID, len(m.Regions), m.Allocated())
		return nil
	})
}

func (c *cli) runSnapshotList(ctx context.Context, sf snapshotFlags) error {
	snap, err := c.snapshotter(sf)
	if err != nil {
		return err
	}
	ms, err := snap.Manifests(ctx)
	if err != nil {
		return err
	}
	if c.jsonOut {
		return c.printJSON(ms)
	}
	for _, m := range ms {
		c.printf("%s  %s  %s  %d bytes\n", m.ID, m.CreatedAt.Format("2006-01-02 15:04:05"), m.Compression, m.BlobSize)
	}
	return nil
}

func (c *cli) runSnapshotPrune(ctx context.Context, sf snapshotFlags, keep int) error {
	snap, err := c.snapshotter(sf)
	if err != nil {
		return err
	}
	deleted, err := snap.Prune(ctx, keep)
	if err != nil {
		return err
	}
	if c.jsonOut {
		return c.printJSON(map[string]any{"deleted": deleted})
	}
	c.printf("pruned %d snapshot(s)\n", len(deleted))
	return nil
}
