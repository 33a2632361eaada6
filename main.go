package main

import (
	"os"

	"github.com/fatih/color"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/stevemurr/kvtable/cmd"
)

func main() {
	rootCmd := cmd.RootCmd()
	rootCmd.SetOut(os.Stdout)
	if err := cmd.Execute(rootCmd); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}
