// The main package for the showfetch executable.
package main

import (
	"github.com/calvera-dev/showfetch/cmd"
)

func main() {
	cmd.Execute()
}
