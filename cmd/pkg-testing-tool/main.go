package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		eerror("%v", err)
		os.Exit(1)
	}
}
