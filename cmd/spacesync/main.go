package main

import "spacesync/cmd/spacesync/cmd"

func main() {
	cmd.Execute()
}
