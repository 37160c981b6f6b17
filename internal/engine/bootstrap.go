package engine

import (
	"context"

	"github.com/wethinkt/go-niiview/internal/fetch"
	"github.com/wethinkt/go-niiview/internal/i18n"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/tuilog"
)

// batchFetcher is implemented by fetch.Client.
type batchFetcher interface {
	FetchAll(ctx context.Context, uris []string, done func(fetch.Result)) error
}

// Bootstrap opens uris the way a viewer URL with images=a,b,c does: one
// viewport per URI is created up front, then each image is attached as its
// download completes, in completion order.
func (e *Engine) Bootstrap(ctx context.Context, uris []string) {
	if len(uris) == 0 {
		return
	}
	e.enqueue(func() { e.initCanvas(len(uris)) })

	done := func(r fetch.Result) {
		e.enqueue(func() { e.fetched(r) })
	}
	if bf, ok := e.fetcher.(batchFetcher); ok {
		e.async(func() {
			if err := bf.FetchAll(ctx, uris, done); err != nil {
				tuilog.Log.Warn("engine: bootstrap interrupted", "error", err)
			}
		})
		return
	}
	for _, uri := range uris {
		e.async(func() {
			data, err := e.fetcher.Fetch(ctx, uri)
			done(fetch.Result{URI: uri, Data: data, Err: err})
		})
	}
}

// fetched attaches one bootstrap download. A failed download still claims
// its viewport so the grid shows the error in place.
func (e *Engine) fetched(r fetch.Result) {
	p := protocol.NewPayload(r.URI, r.Data)
	if r.Err == nil {
		e.addImage(p)
		return
	}
	tuilog.Log.Warn("engine: bootstrap fetch failed", "uri", r.URI, "error", r.Err)
	e.bridge.Notify(protocol.LevelError,
		i18n.Tf("engine.notify.fetchFailed", "Could not download %s: %v", r.URI, r.Err))

	in := e.coll.Claim()
	in.Attach(p)
	in.Consume()
	in.Fail(r.Err)
	e.sel.Correct(e.coll.Len())
	e.touch(in)
}
