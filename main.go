package main

import "github.com/fulmenhq/gitsherpa/cmd"

func main() {
	cmd.Execute()
}
