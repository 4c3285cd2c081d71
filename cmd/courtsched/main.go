package main

import "github.com/example/court-scheduler/internal/interfaces/cli"

func main() {
	cli.Execute()
}
