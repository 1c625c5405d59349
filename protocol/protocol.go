// Package protocol implements the msgpack-RPC subset renvim speaks with the editor.
//
// Only one exchange is supported: a synchronous nvim_command request and its
// empty reply. Every scalar carries its own msgpack type marker, so the
// request bytes are fixed except for the command string.
//
// Request:
//
//	┌────┬───────┬──────────────────┬──────────────┬────┬──────────────┐
//	│ 94 │ cc 00 │ ce 00 00 00 00   │ ac "nvim_..."│ 91 │ str command  │
//	│ [4 │ u8 0  │ u32 msgid        │ method       │ [1 │ param        │
//	└────┴───────┴──────────────────┴──────────────┴────┴──────────────┘
//
// Accepted response:
//
//	[ 4 | int type | int msgid | nil or int | nil or [] ]
package protocol

import (
	"bytes"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"renvim/message"
)

const (
	requestLen  = 4
	responseLen = 4
)

// Encode writes one request message to w.
//
// The message is assembled in memory and handed to w in a single Write, so a
// failure never leaves a frame that was intentionally cut short. Nothing is
// rolled back either: a stream that failed a write is abandoned by the caller.
func Encode(w io.Writer, req *message.Request) error {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	// Header: [type, msgid, method, ...] with fixed-width integers
	if err := enc.EncodeArrayLen(requestLen); err != nil {
		return err
	}
	if err := enc.EncodeUint8(uint8(message.MsgTypeRequest)); err != nil {
		return err
	}
	if err := enc.EncodeUint32(req.MsgID); err != nil {
		return err
	}
	if err := enc.EncodeString(req.Method); err != nil {
		return err
	}

	// Params: one string per argument
	if err := enc.EncodeArrayLen(len(req.Params)); err != nil {
		return err
	}
	for _, p := range req.Params {
		if err := enc.EncodeString(p); err != nil {
			return err
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

// Decode reads exactly one response message from r and checks its shape.
//
// The message type and request id are returned but not checked; see Validate.
// The error slot must be nil or an integer and is discarded. The result slot
// must be nil or an empty array.
//
// r should implement io.ByteScanner (a *bufio.Reader does). Any other reader
// is buffered internally and may lose bytes that follow the message.
func Decode(r io.Reader) (*message.Response, error) {
	dec := msgpack.NewDecoder(r)

	if err := expectArrayLen(dec, "response length", responseLen); err != nil {
		return nil, err
	}

	msgType, err := decodeInt(dec, "message type")
	if err != nil {
		return nil, err
	}
	msgID, err := decodeInt(dec, "request id")
	if err != nil {
		return nil, err
	}

	if err := skipErrorSlot(dec); err != nil {
		return nil, err
	}
	if err := expectEmptyResult(dec); err != nil {
		return nil, err
	}

	return &message.Response{
		MsgType: message.MsgType(msgType),
		MsgID:   msgID,
	}, nil
}

// Validate checks the correlation fields Decode leaves alone: the message
// must be a response and must answer req.
func Validate(resp *message.Response, req *message.Request) error {
	if resp.MsgType != message.MsgTypeResponse {
		return &ViolationError{Field: "message type", Want: int64(message.MsgTypeResponse), Got: int64(resp.MsgType)}
	}
	if resp.MsgID != int64(req.MsgID) {
		return &ViolationError{Field: "request id", Want: int64(req.MsgID), Got: resp.MsgID}
	}
	return nil
}

func expectArrayLen(dec *msgpack.Decoder, field string, want int) error {
	c, err := dec.PeekCode()
	if err != nil {
		return readErr(err)
	}
	if c == msgpcode.Nil {
		if err := dec.DecodeNil(); err != nil {
			return readErr(err)
		}
		return &ViolationError{Field: field, Want: int64(want), Got: -1}
	}
	if !isArray(c) {
		return &TypeError{Field: field, Code: c}
	}

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return readErr(err)
	}
	if n != want {
		return &ViolationError{Field: field, Want: int64(want), Got: int64(n)}
	}
	return nil
}

func decodeInt(dec *msgpack.Decoder, field string) (int64, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return 0, readErr(err)
	}
	if !isInt(c) {
		return 0, &TypeError{Field: field, Code: c}
	}

	v, err := dec.DecodeInt64()
	if err != nil {
		return 0, readErr(err)
	}
	return v, nil
}

func skipErrorSlot(dec *msgpack.Decoder) error {
	c, err := dec.PeekCode()
	if err != nil {
		return readErr(err)
	}
	switch {
	case c == msgpcode.Nil:
		if err := dec.DecodeNil(); err != nil {
			return readErr(err)
		}
	case isInt(c):
		if _, err := dec.DecodeInt64(); err != nil {
			return readErr(err)
		}
	default:
		// An error payload. Its contents are not decoded.
		return &TypeError{Field: "error", Code: c}
	}
	return nil
}

func expectEmptyResult(dec *msgpack.Decoder) error {
	c, err := dec.PeekCode()
	if err != nil {
		return readErr(err)
	}
	if c == msgpcode.Nil {
		if err := dec.DecodeNil(); err != nil {
			return readErr(err)
		}
		return nil
	}
	return expectArrayLen(dec, "result length", 0)
}

func isInt(c byte) bool {
	return msgpcode.IsFixedNum(c) || (c >= msgpcode.Uint8 && c <= msgpcode.Int64)
}

func isArray(c byte) bool {
	return msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32
}
