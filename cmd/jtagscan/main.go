package main

import "github.com/jtagscan/jtagscan/cmd/jtagscan/cmd"

func main() {
	cmd.Execute()
}
