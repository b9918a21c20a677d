// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the frame format spoken between an instrumented
// process and an inspection host.
//
// Each frame is a 5-byte header (1 byte type + 4 byte big-endian
// payload length) followed by the payload. Hello and Message payloads
// are CBOR; Connect and Disconnect carry none. A Message payload is
// wrapped in a compression envelope whose algorithm the client
// announces in its Hello.
//
//	client                     host
//	  | Hello{plugin,...}   ->   |
//	  |   <-   Connect           |
//	  | Message{method,data} ->  |
//	  |          ...             |
//	  | <-   Disconnect   ->     |
package wire
