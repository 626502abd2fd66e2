// Command entctl saves, loads, updates and deletes entities declared in
// config.yaml.
package main

import (
	"os"

	"github.com/mesh-intelligence/ents/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
