package main

import "github.com/snip-links/snip/cmd"

func main() {
	cmd.Execute()
}
