// Package message defines the msgpack-RPC messages exchanged with the editor.
//
// A request is the 4-element array [type, msgid, method, params] and a response
// is [type, msgid, error, result]. The protocol package writes and reads them;
// this package only describes their shape.
package message

// MsgType is the first element of every msgpack-RPC message.
type MsgType int64

const (
	MsgTypeRequest      MsgType = 0 // Client → Editor call
	MsgTypeResponse     MsgType = 1 // Editor → Client reply
	MsgTypeNotification MsgType = 2 // Not sent or handled by renvim
)

// MethodCommand runs an Ex command in the editor.
const MethodCommand = "nvim_command"

// Request carries a single synchronous call.
//
// MsgID is always 0: rounds are strictly sequential, so there is never more
// than one request waiting for its reply.
type Request struct {
	MsgID  uint32
	Method string
	Params []string
}

// Response carries the correlation fields of a reply. The error and result
// slots are consumed by the decoder but not kept.
type Response struct {
	MsgType MsgType
	MsgID   int64
}

// NewCommandRequest wraps an Ex command string in an nvim_command request.
func NewCommandRequest(command string) *Request {
	return &Request{
		MsgID:  0,
		Method: MethodCommand,
		Params: []string{command},
	}
}

// TabNew returns the command that opens an empty tab.
func TabNew() string {
	return "tabnew"
}

// TabNewFile returns the command that opens path in a new tab.
//
// The path is inserted verbatim. The editor splits Ex arguments on
// whitespace, so a path containing spaces reaches it as several tokens.
func TabNewFile(path string) string {
	return "tabnew " + path
}

// ClearBufferName detaches the current buffer from its file name.
const ClearBufferName = "silent! 0file"
