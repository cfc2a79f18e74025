package main

import "github.com/LeJamon/goFeedEscrow/internal/cli"

func main() {
	cli.Execute()
}
