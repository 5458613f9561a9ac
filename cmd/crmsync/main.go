package main

import "github.com/andomingos87/seleto-industrial-sub000/internal/cli"

func main() {
	cli.Execute()
}
