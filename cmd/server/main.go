package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// @title dnastore API
// @version 1.0
// @description DNA sequence records, their creators and asynchronous batch uploads.
// @host localhost:8080
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:    "dnastore",
		Usage:   "DNA sequence record API with asynchronous batch uploads",
		Version: "0.1.0",
		Commands: []*cli.Command{
			serveCommand(),
			checkCommand(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal("application error", "err", err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a TOML configuration file (overrides CONFIG_FILE)",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to an env file (overrides ENV_FILE, default .env)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Create the schema if needed and serve the HTTP API",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides PORT)",
			},
		),
		Action: serve,
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "Verify database and archive connectivity, then exit",
		Flags:  commonFlags(),
		Action: check,
	}
}
