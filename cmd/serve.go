package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"

	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/scanner"
	"github.com/desertthunder/ldx/internal/server"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the remote scan server and looks up every code the paired phone sends.
//
// Scanning restarts after each lookup until the command is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	sc := r.config.Server
	if cmd.IsSet("host") {
		sc.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		sc.Port = int(cmd.Int("port"))
	}
	addr := sc.Addr()

	notifier := r.notifier()
	remote := scanner.NewRemoteEngine()
	scanUI, err := r.scannerUI("remote", remote, notifier)
	if err != nil {
		return err
	}
	ctrl := r.controller(controllerOpts{notifier: notifier, scanner: scanUI})
	ctrl.SetContext(ctx)

	outcomes := make(chan scanOutcome, 1)
	ctrl.OnScanLookup(func(code string, res *models.LookupResult, err error) {
		select {
		case outcomes <- scanOutcome{res: res, err: err}:
		case <-ctx.Done():
		}
	})

	token := server.NewPairingToken()
	base := "http://" + pairingHost(sc)
	router, detections := server.NewRemoteRouter(remote, base+"/detections", token, r.logger)

	errs := make(chan error, 1)
	go func() { errs <- server.Serve(ctx, addr, router, r.logger) }()

	r.writePlainHeader("Remote Scanner")
	r.writePlain("Pairing page: %s/\n", base)
	r.writePlain("Endpoint:     %s/detections\n", base)
	r.writePlain("Token:        %s\n", token)
	r.writePlain("Press Ctrl+C to stop\n\n")

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(base + "/"); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}

	defer ctrl.Modals().Close()
	if err := ctrl.OpenScan(ctx); err != nil {
		return err
	}

	paired := detections.Paired()
	for {
		select {
		case <-ctx.Done():
			ctrl.Modals().Close()
			return <-errs
		case err := <-errs:
			if err != nil {
				return fmt.Errorf("remote scan server failed: %w", err)
			}
			return nil
		case <-paired:
			paired = nil
			r.writePlain("✓ Phone paired\n")
		case outcome := <-outcomes:
			if errors.Is(outcome.err, shared.ErrScannerNotRunning) {
				return fmt.Errorf("remote scanner stopped: %w", outcome.err)
			}
			if outcome.err == nil {
				r.writeLookup(*outcome.res)
				if cmd.Bool("add") {
					if err := r.addFromForm(ctx, ctrl); err != nil {
						r.logger.Warn("failed to add scanned laserdisc", "upc", outcome.res.UPC, "error", err)
					}
				}
			}
			if err := ctrl.OpenScan(ctx); err != nil {
				return err
			}
		}
	}
}

// pairingHost is the host:port a phone on the same network can reach.
//
// A wildcard listen host is replaced by the first non-loopback IPv4 address.
func pairingHost(sc shared.ServerConfig) string {
	host := sc.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
		if addrs, err := net.InterfaceAddrs(); err == nil {
			for _, a := range addrs {
				if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
					host = ipnet.IP.String()
					break
				}
			}
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(sc.Port))
}
