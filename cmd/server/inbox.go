package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/MegaGrindStone/portfolio-web/internal/services"
)

type InboxCommand struct {
	configFlags
	Limit int `help:"Show at most this many messages, newest first. Zero shows all." default:"0"`
}

func (c InboxCommand) Run(ctx context.Context) (err error) {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}

	inbox, err := services.NewBoltInbox(cfg.InboxPath)
	if err != nil {
		return err
	}
	defer inbox.Close()

	subs, err := inbox.Submissions(ctx)
	if err != nil {
		return fmt.Errorf("error reading inbox: %w", err)
	}
	if c.Limit > 0 && len(subs) > c.Limit {
		subs = subs[:c.Limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RECEIVED\tNAME\tEMAIL\tMESSAGE")
	for _, s := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ReceivedAt.Format(time.DateTime), s.Name, s.Email, s.Message)
	}
	return w.Flush()
}
