// Package client drives the editor over an already-open stream.
//
// Every call is one round: encode the request, flush it, then read and check
// the single reply before returning. Rounds never overlap, which is why every
// request can carry the same msgid.
//
//	Open(["a.txt", "b.txt"]):
//	  round 1 ──[0,0,"nvim_command",["tabnew a.txt"]]──→ editor
//	          ←──────────────[1,0,nil,nil]──────────────
//	  round 2 ──[0,0,"nvim_command",["tabnew b.txt"]]──→ editor
//	          ←──────────────[1,0,nil,nil]──────────────
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"renvim/message"
	"renvim/middleware"
	"renvim/protocol"
)

// Client owns the stream for the duration of a run. It is not safe for
// concurrent use and never closes the stream.
type Client struct {
	conn        io.ReadWriter
	r           *bufio.Reader // Kept across rounds: bytes after a reply belong to the next one
	w           *bufio.Writer
	strict      bool
	logger      *zap.Logger
	middlewares []middleware.Middleware
	round       middleware.RoundFunc
}

type Option func(*Client)

// WithStrict makes every round also check that the reply is a response to
// the request just sent.
func WithStrict(strict bool) Option {
	return func(c *Client) {
		c.strict = strict
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMiddleware wraps every round, outermost first.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, mws...)
	}
}

func NewClient(conn io.ReadWriter, opts ...Option) *Client {
	c := &Client{
		conn:   conn,
		r:      bufio.NewReader(conn),
		w:      bufio.NewWriter(conn),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.round = middleware.Chain(c.middlewares...)(c.exchange)
	return c
}

// Open asks the editor to open each path in a new tab, in order. With no
// paths it opens one empty tab.
//
// The first failure stops the run, and so does cancelling ctx. Tabs opened by
// earlier rounds stay open.
func (c *Client) Open(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		if err := c.Command(ctx, message.TabNew()); err != nil {
			return fmt.Errorf("open new tab: %w", err)
		}
		return nil
	}

	for i, path := range paths {
		if err := c.Command(ctx, message.TabNewFile(path)); err != nil {
			return fmt.Errorf("open %s (%d of %d): %w", path, i+1, len(paths), err)
		}
	}
	return nil
}

// OpenStdin opens the file behind fdPath (a /proc path to this process's
// stdin) and then drops the buffer name so the tab is not tied to the
// descriptor path.
func (c *Client) OpenStdin(ctx context.Context, fdPath string) error {
	if err := c.Command(ctx, message.TabNewFile(fdPath)); err != nil {
		return fmt.Errorf("open stdin: %w", err)
	}
	if err := c.Command(ctx, message.ClearBufferName); err != nil {
		return fmt.Errorf("open stdin: %w", err)
	}
	return nil
}

// Command runs one Ex command in the editor and waits for its reply.
func (c *Client) Command(ctx context.Context, command string) error {
	return c.round(ctx, command)
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// exchange is the innermost round: encode → flush → decode → validate.
func (c *Client) exchange(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if d, ok := c.conn.(deadliner); ok {
		if deadline, ok := ctx.Deadline(); ok {
			if err := d.SetDeadline(deadline); err != nil {
				return &protocol.IOError{Op: "set deadline", Err: err}
			}
		}
		defer d.SetDeadline(time.Time{})

		// Cancellation unblocks a pending read or write at once
		stop := context.AfterFunc(ctx, func() {
			d.SetDeadline(time.Now())
		})
		defer stop()
	}

	req := message.NewCommandRequest(command)

	// Step 1: Write the whole request, then push it out
	if err := protocol.Encode(c.w, req); err != nil {
		return canceled(ctx, err)
	}
	if err := c.w.Flush(); err != nil {
		return canceled(ctx, &protocol.IOError{Op: "write", Err: err})
	}
	c.logger.Debug("request sent", zap.String("command", command))

	// Step 2: Read the reply before anything else is written
	resp, err := protocol.Decode(c.r)
	if err != nil {
		return canceled(ctx, err)
	}

	if c.strict {
		return protocol.Validate(resp, req)
	}
	return nil
}

// canceled reports an i/o error caused by cancelling ctx as the cancellation
// itself, still wrapped as an i/o failure.
func canceled(ctx context.Context, err error) error {
	if cause := ctx.Err(); errors.Is(cause, context.Canceled) {
		var ioErr *protocol.IOError
		if errors.As(err, &ioErr) {
			return &protocol.IOError{Op: ioErr.Op, Err: cause}
		}
	}
	return err
}
