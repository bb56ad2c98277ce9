package main

import "github.com/iksnae/cc-convo/cmd"

func main() {
	cmd.Execute()
}
