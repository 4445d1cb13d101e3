package version

import (
	"fmt"
	"os"
)

const (
	Version = "0.1"
)

func HasVersionArg() bool {
	if len(os.Args) > 1 {
		arg := os.Args[1]
		return arg == "--version" || arg == "-version" || arg == "-v"
	}
	return false
}

func ShowVersion() {
	fmt.Printf("gocenima v%s\n", Version)
}
