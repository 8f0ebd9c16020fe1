package main

import (
	"github.com/uofuseismo/urts-core/cmd"
)

func main() {
	cmd.Execute()
}
