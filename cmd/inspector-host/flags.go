// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/inspector/lib/config"
	"github.com/bureau-foundation/inspector/lib/envelope"
	"github.com/bureau-foundation/inspector/lib/process"
)

// hostFlags holds the parsed command line.
type hostFlags struct {
	listen      string
	network     string
	maxMessages int
	configPath  string
	messageType string
	search      string
	tags        map[string]string
	since       time.Duration
	detail      bool
	json        bool
	export      string
	showVersion bool
	help        bool

	flagSet *pflag.FlagSet
}

func parseFlags(args []string) (*hostFlags, error) {
	flags := &hostFlags{}
	flagSet := pflag.NewFlagSet("inspector-host", pflag.ContinueOnError)
	flagSet.StringVar(&flags.listen, "listen", "", "socket path or host:port to listen on (default: host.address from config)")
	flagSet.StringVar(&flags.network, "network", "", "unix or tcp (default: host.network from config)")
	flagSet.IntVar(&flags.maxMessages, "max-messages", defaultMaxMessages, "number of envelopes kept in memory")
	flagSet.StringVar(&flags.configPath, "config", "", "config file (default: $"+config.EnvVar+")")
	flagSet.StringVar(&flags.messageType, "type", "", "show only this envelope type (log, error, metric, state, trace, network)")
	flagSet.StringVar(&flags.search, "search", "", "show only envelopes whose data or tags contain this text")
	flagSet.StringToStringVar(&flags.tags, "tag", nil, "show only envelopes carrying this tag (key=value, repeatable)")
	flagSet.DurationVar(&flags.since, "since", 0, "show and export only envelopes newer than this")
	flagSet.BoolVar(&flags.detail, "detail", false, "print the JSON payload below each line")
	flagSet.BoolVar(&flags.json, "json", false, "print one JSON object per envelope instead of styled lines")
	flagSet.StringVar(&flags.export, "export", "", "write stored envelopes to this .csv or .json file on exit")
	flagSet.BoolVar(&flags.showVersion, "version", false, "print version information and exit")
	flagSet.BoolVarP(&flags.help, "help", "h", false, "show help")
	flags.flagSet = flagSet

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			flags.help = true
			return flags, nil
		}
		return nil, &process.ExitError{Code: 2, Err: err}
	}
	if flagSet.NArg() > 0 {
		return nil, &process.ExitError{Code: 2, Err: fmt.Errorf("unexpected arguments: %v", flagSet.Args())}
	}
	if flags.detail && flags.json {
		return nil, &process.ExitError{Code: 2, Err: errors.New("--detail and --json are mutually exclusive")}
	}
	return flags, nil
}

// filter builds the message filter; --since counts back from now.
func (flags *hostFlags) filter(now time.Time) (Filter, error) {
	filter := Filter{Search: flags.search, Tags: flags.tags}
	if flags.messageType != "" {
		kind, err := envelope.ParseType(flags.messageType)
		if err != nil {
			return Filter{}, &process.ExitError{Code: 2, Err: err}
		}
		filter.Type = kind
	}
	if flags.since > 0 {
		filter.Since = now.Add(-flags.since)
	}
	return filter, nil
}

// applyHost overrides the configured listen address.
func (flags *hostFlags) applyHost(host *config.HostConfig) {
	if flags.network != "" {
		host.Network = flags.network
	}
	if flags.listen != "" {
		host.Address = flags.listen
	}
}
