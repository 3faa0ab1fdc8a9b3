package main

import (
	"github.com/interviewprep-dev/interviewprep/internal/cli"
)

func main() {
	cli.Execute()
}
