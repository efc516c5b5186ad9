package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hupe1980/slotmap"
)

func (c *cli) newAllocCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "alloc",
		Short: "Allocate slots",
		Long: `The alloc command allocates --count slots, lowest free index first, and
prints the indices. When the map fills up, the slots already taken stay
allocated and the command fails with "pool full".

Example:
  slotctl alloc -f pool.arena
  slotctl alloc -f pool.arena --count 10 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAlloc(count)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of slots to allocate")
	return cmd
}

func (c *cli) runAlloc(count int) error {
	if count < 1 {
		return fmt.Errorf("--count must be positive, got %d", count)
	}

	indices := make([]int, 0, count)
	err := c.withMap(func(m *slotmap.Map) error {
		for range count {
			idx, err := m.Alloc()
			if err != nil {
				return err
			}
			indices = append(indices, idx)
		}
		return nil
	})

	if c.jsonOut {
		if perr := c.printJSON(map[string]any{"indices": indices}); perr != nil {
			return perr
		}
	} else {
		for _, idx := range indices {
			c.printf("%d\n", idx)
		}
	}
	return err
}

func (c *cli) newFreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "free INDEX...",
		Short: "Free slots",
		Long: `The free command clears the given slot indices. Freeing a free slot is a
no-op. If any index is outside the geometry, nothing is freed.

Example:
  slotctl free -f pool.arena 3 17 4095`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFree(args)
		},
	}
}

// runFree checks every index against the geometry before touching the
// file, so a bad argument frees nothing.
func (c *cli) runFree(args []string) error {
	g, err := c.parseGeometry()
	if err != nil {
		return err
	}

	indices := make([]int, len(args))
	for i, arg := range args {
		idx, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid index %q", arg)
		}
		if idx < 0 || idx >= g.Capacity() {
			return fmt.Errorf("free %d: %w (capacity %d)", idx, slotmap.ErrInvalidIndex, g.Capacity())
		}
		indices[i] = idx
	}

	err = c.withMap(func(m *slotmap.Map) error {
		for _, idx := range indices {
			if err := m.Dealloc(idx); err != nil {
				return fmt.Errorf("free %d: %w", idx, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if c.jsonOut {
		return c.printJSON(map[string]any{"freed": indices})
	}
	c.printf("freed %d slot(s)\n", len(indices))
	return nil
}
