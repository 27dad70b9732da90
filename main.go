package main

import "github.com/KaramelBytes/cohortscope/cmd"

func main() {
	cmd.Execute()
}
