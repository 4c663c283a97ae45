package main

import (
	"fmt"
	"runtime"

	"github.com/alecthomas/kong"

	"github.com/perimetr/gatekeeper/internal/cli"
)

// version is set at build time via ldflags.
var version = "dev"

func getVersion() string {
	return fmt.Sprintf("%s (%s: %s/%s)",
		version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func main() {
	root := &cli.CLI{}
	ctx := kong.Parse(root, kong.Vars{
		"version": getVersion(),
	})

	ctx.FatalIfErrorf(ctx.Run(root, getVersion()))
}
