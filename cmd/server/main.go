package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	_ "github.com/joho/godotenv/autoload"
)

type CLI struct {
	Serve   ServeCommand   `cmd:"serve" default:"1" help:"Start the portfolio web server."`
	Prompt  PromptCommand  `cmd:"prompt" help:"Print the system instruction sent with every chat request."`
	Inbox   InboxCommand   `cmd:"inbox" help:"List the messages left through the contact form."`
	Version VersionCommand `cmd:"version" help:"Print the version of the server."`
}

const errLoggerKey = "err"

// configFlags are shared by every command that needs the configuration file.
type configFlags struct {
	Config string `help:"Path to the YAML configuration file." env:"PORTFOLIO_CONFIG" default:""`
}

func main() {
	var cli CLI
	ctx := context.Background()
	kctx := kong.Parse(&cli,
		kong.Name("portfolio-web"),
		kong.Description("A personal portfolio site with an AI chat assistant."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)))
	if err := kctx.Run(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

func reportError(w io.Writer, err error) {
	log := slog.New(slog.NewJSONHandler(w, nil))
	log.Error("Command failed", slog.String(errLoggerKey, err.Error()))
}
