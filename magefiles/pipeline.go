package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Research runs the full pipeline for query and writes the run to output/.
func Research(query string) error {
	mg.Deps(Build, Init)
	return sh.RunV("bin/"+binName, "run", "--output-dir", "output", "--archive", query)
}

// Archive lists archived runs.
func Archive() error {
	mg.Deps(Build)
	return sh.RunV("bin/"+binName, "archive", "list")
}
