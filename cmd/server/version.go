package main

import (
	"context"
	"fmt"

	portfolioweb "github.com/MegaGrindStone/portfolio-web"
)

type VersionCommand struct {
}

func (c VersionCommand) Run(ctx context.Context) (err error) {
	fmt.Println(portfolioweb.Version)
	return nil
}
