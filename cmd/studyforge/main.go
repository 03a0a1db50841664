// studyforge is a spaced-repetition flashcard tool for the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/conorfennell/studyforge/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
