package main

import (
	"github.com/mchmarny/cardio/pkg/cli"
)

func main() {
	cli.Execute()
}
