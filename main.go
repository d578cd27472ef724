package main

import (
	"github.com/sidkik/simpledfs/cmd"
	"github.com/sidkik/simpledfs/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
