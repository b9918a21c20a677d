// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evhttp

import "sync/atomic"

// OpenFunc implements Request.Open.
type OpenFunc func(r *Request, method, url string) error

// SendFunc implements Request.Send.
type SendFunc func(r *Request, body any) error

// Hooks is the pair of functions every Request dispatches through.
type Hooks struct {
	Open OpenFunc
	Send SendFunc
}

var hooks atomic.Pointer[Hooks]

func init() {
	hooks.Store(&Hooks{Open: (*Request).open, Send: (*Request).send})
}

func currentHooks() *Hooks {
	return hooks.Load()
}

// CurrentHooks returns the installed hooks. A wrapper captures these
// before installing itself and delegates to them.
func CurrentHooks() Hooks {
	return *hooks.Load()
}

// SetHooks installs replacement hooks for every Request in the
// process, including requests already created. Nil fields keep the
// currently installed function.
func SetHooks(replacement Hooks) {
	current := CurrentHooks()
	if replacement.Open == nil {
		replacement.Open = current.Open
	}
	if replacement.Send == nil {
		replacement.Send = current.Send
	}
	hooks.Store(&replacement)
}
