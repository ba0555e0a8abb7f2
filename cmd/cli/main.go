// wherewas - location history lookup tool
//
// wherewas answers "where was I at this time?" from a location history
// export, using an interval index cached next to the export.
package main

import (
	"os"

	"github.com/ccollicutt/wherewas/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
