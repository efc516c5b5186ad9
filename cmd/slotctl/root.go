package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/slotmap"
	"github.com/hupe1980/slotmap/arena"
)

// cli holds the global flags shared by every command.
type cli struct {
	file     string
	geometry string
	offset   int
	logLevel string
	jsonOut  bool

	out io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:   "slotctl",
		Short: "Inspect and edit slot maps in arena files",
		Long: `slotctl operates on a hierarchical slot bitmap stored at an offset of an
arena file. The bitmap itself is the only state: every command maps the file,
works on the region, and flushes it back.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&c.file, "file", "f", "slots.arena", "Arena file")
	pf.StringVarP(&c.geometry, "geometry", "g", "standard", "Geometry: small|standard|trade|max|custom-N")
	pf.IntVar(&c.offset, "offset", 0, "Byte offset of the bitmap in the file")
	pf.StringVar(&c.logLevel, "log-level", "warn", "Log level: debug|info|warn|error")
	pf.BoolVar(&c.jsonOut, "json", false, "Output in JSON format")

	root.AddCommand(
		c.newFormatCmd(),
		c.newAllocCmd(),
		c.newFreeCmd(),
		c.newStatCmd(),
		c.newVerifyCmd(),
		c.newListCmd(),
		c.newSnapshotCmd(),
	)
	return root
}

// run executes slotctl and returns the process exit code.
func run(args []string, out, errOut io.Writer) int {
	root := newRootCmd(out, errOut)
	root.SetArgs(args)

	if err := root.ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, slotmap.ErrNoAvailableSlots) {
			fmt.Fprintln(errOut, "slotctl: pool full")
		} else {
			fmt.Fprintf(errOut, "slotctl: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *cli) logger() (*slotmap.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", c.logLevel)
	}
	return slotmap.NewTextLogger(level), nil
}

func (c *cli) parseGeometry() (slotmap.Geometry, error) {
	g, err := slotmap.ParseGeometry(c.geometry)
	if err != nil {
		return slotmap.Geometry{}, fmt.Errorf("invalid --geometry: %w", err)
	}
	return g, nil
}

// openArena maps the arena file. A size of 0 maps the existing file.
func (c *cli) openArena(size int) (*arena.Arena, error) {
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}
	return arena.OpenFile(c.file, size,
		arena.WithName(strings.TrimSuffix(filepath.Base(c.file), filepath.Ext(c.file))),
		arena.WithLogger(logger),
	)
}

// withMap opens the arena, borrows the configured map, runs fn and syncs.
func (c *cli) withMap(fn func(m *slotmap.Map) error) (err error) {
	g, err := c.parseGeometry()
	if err != nil {
		return err
	}

	if _, err := os.Stat(c.file); err != nil {
		return fmt.Errorf("open arena: %w (run slotctl format first)", err)
	}

	a, err := c.openArena(0)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Sync(), a.Close())
	}()

	h, err := a.Handle(c.offset, g)
	if err != nil {
		return err
	}
	return h.With(fn)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
