// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// inspector-host is a terminal inspection host. Applications using
// lib/inspector connect to its socket; it prints every envelope they
// send as a styled line and keeps the most recent ones in memory for
// export on exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/bureau-foundation/inspector/lib/clock"
	"github.com/bureau-foundation/inspector/lib/config"
	"github.com/bureau-foundation/inspector/lib/envelope"
	"github.com/bureau-foundation/inspector/lib/process"
	"github.com/bureau-foundation/inspector/lib/version"
)

// statsInterval is how often the host logs its counters.
const statsInterval = time.Minute

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	if flags.help {
		fmt.Fprintf(os.Stdout, "Usage: inspector-host [flags]\n\n%s", flags.flagSet.FlagUsages())
		return nil
	}
	if flags.showVersion {
		version.Print("inspector-host")
		return nil
	}

	logger := newLogger()
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	flags.applyHost(&cfg.Host)
	for _, fallback := range cfg.Normalize() {
		logger.Warn("config value replaced", "detail", fallback)
	}

	realClock := clock.Real()
	filter, err := flags.filter(realClock.Now())
	if err != nil {
		return err
	}

	listener, cleanup, err := listen(cfg.Host.Network, cfg.Host.Address)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := NewMessageStore(flags.maxMessages, realClock)
	printer := newPrinter(os.Stdout, flags, filter, logger)
	server := NewServer(listener, store, printer.print, logger)

	logger.Info("inspector host listening",
		"network", cfg.Host.Network,
		"address", cfg.Host.Address,
		"version", version.Short(),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Serve(groupCtx)
	})
	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-realClock.After(statsInterval):
				logger.Info("inspector host stats",
					"received", server.Received(),
					"rejected", server.Rejected(),
					"stored", store.Len(),
					"evicted", store.Evicted(),
				)
			}
		}
	})
	if err := group.Wait(); err != nil {
		return err
	}
	logger.Info("inspector host stopped", "received", server.Received())

	if flags.export != "" {
		exportFilter, _ := flags.filter(realClock.Now())
		messages := store.Query(exportFilter)
		if err := exportFile(flags.export, messages, time.Local); err != nil {
			return err
		}
		logger.Info("exported envelopes", "path", flags.export, "count", len(messages))
	}
	return nil
}

// loadConfig reads path, or $INSPECTOR_CONFIG when path is empty. With
// neither, the defaults apply.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv(config.EnvVar) != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// listen opens the host socket. A stale Unix socket file from an
// earlier run is replaced; the returned cleanup removes it again.
func listen(network, address string) (net.Listener, func(), error) {
	if network != "unix" {
		listener, err := net.Listen(network, address)
		if err != nil {
			return nil, nil, fmt.Errorf("listening on %s %s: %w", network, address, err)
		}
		return listener, func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(address), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating socket directory: %w", err)
	}
	if info, err := os.Lstat(address); err == nil {
		if info.Mode()&fs.ModeSocket == 0 {
			return nil, nil, fmt.Errorf("%s exists and is not a socket", address)
		}
		if err := os.Remove(address); err != nil {
			return nil, nil, fmt.Errorf("removing stale socket: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("checking socket path: %w", err)
	}

	listener, err := net.Listen("unix", address)
	if err != nil {
		return nil, nil, fmt.Errorf("listening on %s: %w", address, err)
	}
	if err := os.Chmod(address, 0o600); err != nil {
		listener.Close()
		return nil, nil, fmt.Errorf("restricting socket permissions: %w", err)
	}
	return listener, func() { os.Remove(address) }, nil
}

// printer writes matching envelopes to the output. Connection
// goroutines call print concurrently.
type printer struct {
	mu       sync.Mutex
	out      io.Writer
	filter   Filter
	json     bool
	renderer *Renderer
	logger   *slog.Logger
}

func newPrinter(out *os.File, flags *hostFlags, filter Filter, logger *slog.Logger) *printer {
	options := RenderOptions{Detail: flags.detail}
	if fd := int(out.Fd()); term.IsTerminal(fd) {
		options.Color = os.Getenv("NO_COLOR") == ""
		if width, _, err := term.GetSize(fd); err == nil {
			options.Width = width
		}
	}
	return &printer{
		out:      out,
		filter:   filter,
		json:     flags.json,
		renderer: NewRenderer(out, options),
		logger:   logger,
	}
}

func (p *printer) print(env envelope.Envelope) {
	if !p.filter.Match(env) {
		return
	}
	var line string
	if p.json {
		encoded, err := encodeJSONLine(env)
		if err != nil {
			p.logger.Warn("encoding envelope", "envelope_id", env.ID, "error", err)
			return
		}
		line = string(encoded)
	} else {
		line = p.renderer.Render(env)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}
