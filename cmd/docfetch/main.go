package main

import (
	"github.com/qhkm/docfetch/internal/cli"
)

func main() {
	cli.Execute()
}
