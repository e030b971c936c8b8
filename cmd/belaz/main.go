package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/belaz/internal/cli"
	"github.com/vvka-141/belaz/pkg/belaz"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(belaz.ExitPanic)
		}
	}()

	if os.Getenv("BELAZ_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(belaz.ExitCodeForError(err))
	}
}
