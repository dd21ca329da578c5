// Package network implements the wire transport from spec.md §6.2: one
// PULL-style listener per process, a pool of long-lived PUSH-style
// outbound connections, and a length-delimited msgpack envelope.
//
// The teacher (goshawkdb) frames its wire protocol with
// github.com/glycerine/go-capnproto against a schema-compiled message
// package that isn't part of this retrieval pack (no .capnp schema, no
// generated code to hand-copy). github.com/vmihailenco/msgpack/v5 is
// used instead — it shows up in the dependency surface of other repos in
// the pack (flow-go's vmihailenco/msgpack, aistore's and moby's
// tinylib/msgp) and needs no code generation step, only struct tags
// already present on types.Message.
package network

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/routhusundeep/paxos/types"
)

// WireMessage is the one envelope type every transmission is wrapped in
// (spec.md §6.1): To lets the receiving poller demultiplex to the right
// local inbox without touching the inner Message at all.
type WireMessage struct {
	To      types.ProcessId `msgpack:"to"`
	Message types.Message   `msgpack:"msg"`
}

// maxFrameSize bounds a single decoded frame; a length prefix larger
// than this is treated as a corrupt stream rather than an attempt to
// allocate unbounded memory.
const maxFrameSize = 16 << 20

// encodeFrame msgpack-encodes env and prefixes it with a big-endian
// uint32 length, giving the length-delimited framing spec.md §6.1 calls
// for over a byte stream that has no message boundaries of its own.
func encodeFrame(env WireMessage) ([]byte, error) {
	body, err := msgpack.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("network: encode WireMessage: %w", err)
	}
	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(body)))
	copy(frame[4:], body)
	return frame, nil
}

// writeFrame writes one length-delimited frame to w.
func writeFrame(w io.Writer, env WireMessage) error {
	frame, err := encodeFrame(env)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// readFrame reads one length-delimited frame from r and decodes it.
// Serialization failures here are fatal to the receiving poller per
// spec.md §7 ("Serialization failure on the wire").
func readFrame(r *bufio.Reader) (WireMessage, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return WireMessage{}, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameSize {
		return WireMessage{}, fmt.Errorf("network: frame of %d bytes exceeds max %d", n, maxFrameSize)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return WireMessage{}, err
	}
	var env WireMessage
	if err := msgpack.Unmarshal(body, &env); err != nil {
		return WireMessage{}, fmt.Errorf("network: decode WireMessage: %w", err)
	}
	return env, nil
}
