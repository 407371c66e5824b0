package main

import (
	"os"

	"github.com/scan-io-git/sariflens/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
