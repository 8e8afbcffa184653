package sg

import "context"

// Transport is the extension point for the SG wire layer (§6): production
// deployments would implement this over gRPC or raw TCP framing; this
// module ships only the in-process channel transport used by tests and by
// single-binary benchmark runs (cmd/arraydb-bench), since real network
// transport is explicitly out of this execution core's scope.
type Transport interface {
	// SendRequest asks instance `toInstance` to produce the next item for req.
	SendRequest(ctx context.Context, toInstance int, req Request) error
	// Messages returns the channel of messages this instance receives.
	Messages() <-chan Message
}

// Producer is implemented by whatever locally produces chunks for a
// (attr, destStream) request: typically a local Array iterator being
// scattered out to a remote consumer.
type Producer interface {
	// Produce returns the next message for req, or an error. Implementations
	// return a KindEOF message rather than an error when the local source is
	// exhausted.
	Produce(ctx context.Context, req Request) (Message, error)
}

// ChanTransport is an in-process Transport backed by per-instance Go
// channels, wired directly to local Producers keyed by source instance
// (§6's extension-point note: "SG wire encoding uses in-process Go
// channels via a Transport interface extension point").
type ChanTransport struct {
	selfInstance int
	inbox        chan Message
	peers        map[int]Producer // instance id -> local producer that instance exposes
}

// NewChanTransport creates a transport for selfInstance backed by the given
// peer producer table (including, trivially, a self-entry if this instance
// also produces for itself).
func NewChanTransport(selfInstance int, peers map[int]Producer, inboxSize int) *ChanTransport {
	return &ChanTransport{selfInstance: selfInstance, inbox: make(chan Message, inboxSize), peers: peers}
}

func (t *ChanTransport) Messages() <-chan Message { return t.inbox }

// SendRequest synchronously invokes the target instance's local Producer
// and enqueues its reply on this transport's inbox, modeling a
// network round trip without an actual network.
func (t *ChanTransport) SendRequest(ctx context.Context, toInstance int, req Request) error {
	prod, ok := t.peers[toInstance]
	if !ok {
		return errUnknownInstance(toInstance)
	}
	msg, err := prod.Produce(ctx, req)
	if err != nil {
		msg = Message{AttrID: req.AttrID, SourceInstance: toInstance, DestStream: req.DestStream, Kind: KindError, Err: err}
	}
	select {
	case t.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
