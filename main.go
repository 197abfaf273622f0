package main

import "github.com/papapumpkin/riskgraph/cmd"

func main() {
	cmd.Execute()
}
