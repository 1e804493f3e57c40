package main

import "github.com/paleofauna/crabstat/cmd"

func main() {
	cmd.Execute()
}
