package main

import "challengr-backend/cmd"

func main() {
	cmd.Run()
}
