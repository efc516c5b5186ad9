package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/hupe1980/slotmap"
)

func (c *cli) newFormatCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "format",
		Short: "Create or extend the arena file and zero the bitmap",
		Long: `The format command creates the arena file if needed, extends it with zeros
to --size bytes, and clears the bitmap at --offset. The default size is just
large enough for the bitmap.

Example:
  slotctl format -f pool.arena -g max
  slotctl format -f pool.arena -g small --offset 4096 --size 65536`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFormat(size)
		},
	}
	cmd.Flags().IntVar(&size, "size", 0, "Arena file size in bytes")
	return cmd
}

func (c *cli) runFormat(size int) (err error) {
	g, err := c.parseGeometry()
	if err != nil {
		return err
	}
	size = max(size, c.offset+g.RequiredBytes())

	a, err := c.openArena(size)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Sync(), a.Close())
	}()

	if err := slotmap.Format(a.Bytes(), c.offset, g); err != nil {
		return err
	}

	if c.jsonOut {
		return c.printJSON(map[string]any{
			"file":     c.file,
			"geometry": g,
			"offset":   c.offset,
			"capacity": g.Capacity(),
			"bytes":    g.RequiredBytes(),
		})
	}
	c.printf("formatted %s: %s at offset %d (%d slots, %d bytes)\n",
		c.file, g, c.offset, g.Capacity(), g.RequiredBytes())
	return nil
}
