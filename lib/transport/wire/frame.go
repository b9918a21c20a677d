// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/inspector/lib/codec"
)

// FrameType identifies a frame. The values are protocol constants.
type FrameType byte

const (
	// FrameHello opens a session. Client to host. Payload is a CBOR
	// Hello.
	FrameHello FrameType = 0x01

	// FrameConnect accepts a Hello. Host to client. No payload.
	FrameConnect FrameType = 0x02

	// FrameMessage carries one plugin message. Client to host.
	// Payload is a compressed CBOR Message.
	FrameMessage FrameType = 0x03

	// FrameDisconnect ends the session. Either direction. No payload.
	FrameDisconnect FrameType = 0x04
)

func (t FrameType) String() string {
	switch t {
	case FrameHello:
		return "hello"
	case FrameConnect:
		return "connect"
	case FrameMessage:
		return "message"
	case FrameDisconnect:
		return "disconnect"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(t))
	}
}

const headerLength = 5

// MaxPayloadLength bounds a frame payload.
const MaxPayloadLength = 16 * 1024 * 1024

// ErrPayloadTooLarge is returned when a frame payload exceeds
// MaxPayloadLength, on either the read or the write side.
var ErrPayloadTooLarge = errors.New("wire: frame payload too large")

// Frame is one protocol frame.
type Frame struct {
	Type    FrameType
	Payload []byte
}

// WriteFrame writes frame to w as a header followed by the payload.
func WriteFrame(w io.Writer, frame Frame) error {
	if len(frame.Payload) > MaxPayloadLength {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(frame.Payload))
	}
	var header [headerLength]byte
	header[0] = byte(frame.Type)
	binary.BigEndian.PutUint32(header[1:5], uint32(len(frame.Payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if len(frame.Payload) > 0 {
		if _, err := w.Write(frame.Payload); err != nil {
			return fmt.Errorf("write frame payload: %w", err)
		}
	}
	return nil
}

// ReadFrame reads one frame from r. A clean end of stream before the
// header returns io.EOF unwrapped.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [headerLength]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("read frame header: %w", err)
	}
	length := binary.BigEndian.Uint32(header[1:5])
	if length > MaxPayloadLength {
		return Frame{}, fmt.Errorf("%w: header declares %d bytes", ErrPayloadTooLarge, length)
	}
	frame := Frame{Type: FrameType(header[0])}
	if length > 0 {
		frame.Payload = make([]byte, length)
		if _, err := io.ReadFull(r, frame.Payload); err != nil {
			return Frame{}, fmt.Errorf("read frame payload: %w", err)
		}
	}
	return frame, nil
}

// Hello is the client's opening frame payload.
type Hello struct {
	Plugin      string         `cbor:"plugin"`
	Background  bool           `cbor:"background"`
	Compression CompressionTag `cbor:"compression"`
}

// Message is a plugin message: a method name and its data.
type Message struct {
	Method string `cbor:"method"`
	Data   any    `cbor:"data"`
}

// RawMessage is a Message whose data is left encoded so the receiver
// can choose the target type by method.
type RawMessage struct {
	Method string           `cbor:"method"`
	Data   codec.RawMessage `cbor:"data"`
}

// NewHelloFrame encodes hello.
func NewHelloFrame(hello Hello) (Frame, error) {
	payload, err := codec.Marshal(hello)
	if err != nil {
		return Frame{}, fmt.Errorf("encode hello: %w", err)
	}
	return Frame{Type: FrameHello, Payload: payload}, nil
}

// ParseHello decodes a Hello frame payload.
func ParseHello(payload []byte) (Hello, error) {
	var hello Hello
	if err := codec.Unmarshal(payload, &hello); err != nil {
		return Hello{}, fmt.Errorf("decode hello: %w", err)
	}
	return hello, nil
}

// NewMessageFrame encodes and compresses a message.
func NewMessageFrame(message Message, tag CompressionTag) (Frame, error) {
	encoded, err := codec.Marshal(message)
	if err != nil {
		return Frame{}, fmt.Errorf("encode message: %w", err)
	}
	payload, err := Compress(encoded, tag)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameMessage, Payload: payload}, nil
}

// ParseMessage decompresses and decodes a Message frame payload.
func ParseMessage(payload []byte) (RawMessage, error) {
	encoded, err := Decompress(payload)
	if err != nil {
		return RawMessage{}, err
	}
	var message RawMessage
	if err := codec.Unmarshal(encoded, &message); err != nil {
		return RawMessage{}, fmt.Errorf("decode message: %w", err)
	}
	return message, nil
}
