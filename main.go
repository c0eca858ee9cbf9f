package main

import "github.com/CraftOldWang/information-retrieval/cmd"

func main() {
	cmd.Execute()
}
