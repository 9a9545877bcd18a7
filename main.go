package main

import "spoolsync/cmd"

func main() {
	cmd.Execute()
}
