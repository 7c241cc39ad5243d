// The main package for the emailscraper executable.
package main

import (
	"github.com/rageshhub/youtube-email-scraper/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
