package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// AuthLogin validates an access token with the backend and stores it.
//
// The token comes from the argument, or is read from input after optionally opening the sign-in page.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	token := cmd.StringArg("token")

	if token == "" {
		if cmd.Bool("browser") {
			if err := shared.OpenBrowser(r.api.AuthURL()); err != nil {
				r.logger.Warn("could not open browser", "error", err)
				r.writePlain("Open %s to get your access token\n", r.api.AuthURL())
			}
		}

		r.writePlain("Access token: ")
		line, err := bufio.NewReader(r.input).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("%w: access token", shared.ErrMissingArgument)
		}
		token = line
	}

	if shared.NormalizeToken(token) == "" {
		return fmt.Errorf("%w: access token", shared.ErrMissingArgument)
	}

	r.logger.Info("validating access token")
	canonical, err := r.api.Authenticate(ctx, token)
	if errors.Is(err, shared.ErrInvalidToken) {
		return fmt.Errorf("%w: %s", shared.ErrInvalidToken, strings.TrimSpace(token))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	r.logger.Info("authentication successful")
	return r.writePlain("✓ Signed in as %s\n", canonical)
}

// AuthLogout forgets the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.api.Logout(ctx); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports whether a token is stored and whether the backend accepts it.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.writePlain("Backend: %s\n", r.api.BaseURL())

	if !r.api.HasToken(ctx) {
		r.writePlain("✗ Not signed in\n")
		return r.writePlain("Run 'ldx auth login' to store your access token\n")
	}

	page, err := r.api.ListCollection(ctx, models.ListQuery{Limit: 1})
	if errors.Is(err, shared.ErrUnauthorized) {
		r.writePlain("✗ Stored token was rejected\n")
		return r.writePlain("Run 'ldx auth login' to sign in again\n")
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("✓ Signed in\n")
	return r.writePlain("Collection: %s LaserDiscs\n", humanize.Comma(page.Stats.Total))
}
