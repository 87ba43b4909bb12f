package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/accessportal/internal/client/api"
	"github.com/dmitrijs2005/accessportal/internal/client/config"
)

// adminAPI is the part of api.Client the console uses.
type adminAPI interface {
	Health(ctx context.Context) error
	Stats(ctx context.Context) (*api.Stats, error)
	Users(ctx context.Context, limit, offset int) ([]api.Account, error)
	Disable(ctx context.Context, email string) (*api.Account, error)
	Enable(ctx context.Context, email string) (*api.Account, error)
	Sweep(ctx context.Context) (*api.SweepReport, error)
}

type App struct {
	config *config.Config
	api    adminAPI
	input  *bufio.Scanner
	out    io.Writer
}

// NewApp builds the console. A missing admin secret is read from the
// terminal.
func NewApp(c *config.Config) (*App, error) {
	secret := c.AdminSecret
	if secret == "" {
		s, err := GetSecret(os.Stdout)
		if err != nil {
			return nil, fmt.Errorf("read admin secret: %w", err)
		}
		secret = s
	}
	if secret == "" {
		return nil, errors.New("admin secret is required")
	}

	return &App{
		config: c,
		api:    api.NewClient(c.ServerURL, secret, c.RequestTimeout),
		input:  bufio.NewScanner(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	if err := a.api.Health(ctx); err != nil {
		fmt.Fprintf(a.out, "warning: server %s is not healthy: %v\n", a.config.ServerURL, err)
	}
	runREPL(ctx, a, func() string { return a.config.ServerURL }, a.input)
}

// report prints err in a form fit for an operator.
func (a *App) report(err error) error {
	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		fmt.Fprintln(a.out, "Admin secret rejected by the server.")
	case errors.As(err, &apiErr):
		fmt.Fprintf(a.out, "Error: %s (HTTP %d)\n", apiErr.Message, apiErr.Status)
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
	return err
}
