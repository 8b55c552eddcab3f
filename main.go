package main

import "github.com/gridledger/electric/cmd"

func main() {
	cmd.Execute()
}
