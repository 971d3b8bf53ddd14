package main

import "github.com/theirongolddev/flightrec/cmd"

func main() {
	cmd.Execute()
}
