// The main package for the leadscraper executable.
package main

import (
	"github.com/neonlead/leadscraper/cmd"
)

func main() {
	cmd.Execute()
}
