package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/slotmap"
)

func (c *cli) newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Show capacity and occupancy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withMap(func(m *slotmap.Map) error {
				st := m.Stats()
				if c.jsonOut {
					return c.printJSON(st)
				}
				c.printf("Geometry:    %s\n", st.Geometry)
				c.printf("Offset:      %d\n", m.Offset())
				c.printf("Bytes:       %d\n", st.Bytes)
				c.printf("Capacity:    %d\n", st.Capacity)
				c.printf("Allocated:   %d\n", st.Allocated)
				c.printf("Free:        %d\n", st.Free)
				c.printf("Utilization: %.2f%%\n", st.Utilization*100)
				return nil
			})
		},
	}
}

func (c *cli) newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every summary bit matches its child word",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withMap(func(m *slotmap.Map) error {
				if err := m.Verify(); err != nil {
					return err
				}
				if c.jsonOut {
					return c.printJSON(map[string]any{"ok": true})
				}
				c.printf("ok\n")
				return nil
			})
		},
	}
}

func (c *cli) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List allocated slot indices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withMap(func(m *slotmap.Map) error {
				bm, err := m.Allocated()
				if err != nil {
					return err
				}
				indices := bm.ToArray()
				if c.jsonOut {
					return c.printJSON(map[string]any{"indices": indices})
				}
				var sb strings.Builder
				for _, idx := range indices {
					sb.WriteString(strconv.FormatUint(uint64(idx), 10))
					sb.WriteByte('\n')
				}
				c.printf("%s", sb.String())
				return nil
			})
		},
	}
}
