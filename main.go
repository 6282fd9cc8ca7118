// The main package for the pipeline executable.
package main

import (
	"github.com/JakeFAU/catalogue-pipeline/cmd"
)

func main() {
	cmd.Execute()
}
