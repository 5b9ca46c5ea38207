package main

import (
	"context"
	"fmt"
	"os"

	"github.com/baleriaa/493/internal/client/cli"
	"github.com/baleriaa/493/internal/client/config"
	"github.com/baleriaa/493/internal/flagx"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	args := flagx.Positional(os.Args[1:], config.ValueFlags)
	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

}
