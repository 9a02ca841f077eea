package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/apptrack/apptrack/internal/app"
	"github.com/apptrack/apptrack/internal/paths"
	"go.uber.org/fx"
)

func main() {
	baseFlag := flag.String("base", "", "base directory (default ~/.apptrack)")
	flag.Parse()

	base := *baseFlag
	if base == "" {
		base = paths.BaseDir()
	}
	if base == "" {
		fmt.Fprintln(os.Stderr, "error: cannot resolve base directory")
		os.Exit(1)
	}

	fx.New(
		app.Module(app.Params{BaseDir: base}),
	).Run()
}
