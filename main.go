package main

import (
	"github.com/Layr-Labs/actiontree/cmd"
)

func main() {
	cmd.Execute()
}
