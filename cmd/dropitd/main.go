// Command dropitd runs the dropit ephemeral file-sharing server.
package main

import (
	"os"

	"github.com/scotow/dropit/cmd/dropitd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		commands.Exit("%v", err)
		os.Exit(1)
	}
}
