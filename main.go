package main

import "github.com/suvrajeet01/virtex/cmd"

func main() {
	cmd.Execute()
}
