package main

import "ripple/cmd"

func main() {
	cmd.Execute()
}
