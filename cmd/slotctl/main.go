// Command slotctl inspects and edits slot maps stored in arena files.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
