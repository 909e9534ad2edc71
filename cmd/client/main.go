package main

import (
	"studiosync/cmd/client/cmd"
)

func main() {
	cmd.Execute()
}
