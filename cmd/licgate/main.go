package main

import "github.com/harutoki/licensegate/internal/cli"

func main() {
	cli.Execute()
}
