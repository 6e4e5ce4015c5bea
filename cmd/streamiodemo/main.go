package main

import "github.com/altmount-labs/streamio/cmd/streamiodemo/cmd"

func main() {
	cmd.Execute()
}
