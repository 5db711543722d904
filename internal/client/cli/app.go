// Package cli implements the interactive TaskVault client: a small REPL
// over the server's HTTP API.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/dmitrijs2005/taskvault/internal/client/api"
	"github.com/dmitrijs2005/taskvault/internal/client/config"
)

type App struct {
	config *config.Config
	client *api.Client
	reader *bufio.Reader
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		client: api.New(c.ServerEndpointAddr),
		reader: bufio.NewReader(os.Stdin),
	}
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.client.IsLoggedIn()
}
