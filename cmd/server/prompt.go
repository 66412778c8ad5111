package main

import (
	"context"
	"fmt"

	"github.com/MegaGrindStone/portfolio-web/internal/chat"
)

type PromptCommand struct {
	configFlags
}

func (c PromptCommand) Run(ctx context.Context) (err error) {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	portfolio, err := cfg.portfolio()
	if err != nil {
		return err
	}
	instruction, err := chat.BuildInstruction(portfolio)
	if err != nil {
		return err
	}
	fmt.Println(instruction)
	return nil
}
