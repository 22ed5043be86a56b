package main

import (
	"context"
	"os"

	"github.com/agbru/riemann/internal/app"
	"github.com/agbru/riemann/internal/procpool"
)

func main() {
	// Worker processes of the process backend re-execute this binary.
	procpool.RunWorkerIfRequested()

	application := app.New(os.Args, os.Stderr)
	os.Exit(application.Run(context.Background(), os.Stdout))
}
