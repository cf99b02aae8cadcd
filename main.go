package main

import "github.com/KaramelBytes/salescope-cli/cmd"

func main() {
	cmd.Execute()
}
