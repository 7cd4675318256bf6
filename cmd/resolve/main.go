package main

import (
	"os"

	"github.com/mitchellh/cli"
)

func main() {
	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	c := cli.NewCLI("resolve", "0.1.0")
	c.Args = os.Args[1:]
	c.Commands = commands(ui)

	status, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
	}
	os.Exit(status)
}

func commands(ui cli.Ui) map[string]cli.CommandFactory {
	base := &baseCommand{ui: ui}
	return map[string]cli.CommandFactory{
		"hosts":    func() (cli.Command, error) { return &HostsCommand{baseCommand: base}, nil },
		"resolve":  func() (cli.Command, error) { return &ResolveCommand{baseCommand: base}, nil },
		"weighted": func() (cli.Command, error) { return &WeightedCommand{baseCommand: base}, nil },
		"public":   func() (cli.Command, error) { return &PublicCommand{baseCommand: base}, nil },
	}
}
