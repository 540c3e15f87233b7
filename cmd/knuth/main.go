package main

import "github.com/emrgen/knuth/cmd"

func main() {
	cmd.Execute()
}
