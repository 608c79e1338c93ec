package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/okatsune/desudl/bundle"
	"github.com/okatsune/desudl/database"
	"github.com/okatsune/desudl/progress"
)

const (
	// PrimaryMaxSize is the hard ceiling of the default low capacity
	// channel.
	PrimaryMaxSize int64 = 50 << 20
	// AlternateMaxSize is the ceiling of the optional high capacity
	// channel.
	AlternateMaxSize int64 = 2000 << 20
)

// ErrTooLarge is returned when an artifact stays over every available
// channel ceiling even after the compression retry.
var ErrTooLarge = errors.New("artifact too large for every delivery channel")

// Channel is one transport an artifact can be sent through. Send returns
// a remote handle a later cache hit can be replayed with. Handles must be
// portable, a handle obtained from the alternate channel is served
// through the primary one on replay.
type Channel interface {
	Name() string
	MaxSize() int64
	Send(ctx context.Context, artifact *bundle.Artifact, displayName string, sink progress.Sink) (string, error)
}

// Router picks a delivery path for produced artifacts by size. The
// alternate channel is optional, a nil alternate just narrows the success
// cases.
type Router struct {
	primary   Channel
	alternate Channel
	store     *database.Store
}

func NewRouter(primary, alternate Channel, store *database.Store) *Router {
	return &Router{
		primary:   primary,
		alternate: alternate,
		store:     store,
	}
}

// Request is one deliver-an-archive order. Produce is invoked lazily, a
// cache hit never produces anything. It may be called twice, the second
// time with compress set.
type Request struct {
	SubjectID   int64
	SubUnitID   string
	Format      bundle.Format
	DisplayName string

	Produce func(ctx context.Context, compress bool) (*bundle.Artifact, error)

	Sink progress.Sink
}

// Outcome reports how a request was satisfied.
type Outcome struct {
	Handle     string
	FromCache  bool
	Compressed bool
	// UserMessage is a plain language description of the result suitable
	// for showing to the requesting user. Set on failure outcomes.
	UserMessage string
}

// Deliver routes one request end to end: cache lookup, production, size
// check, compression retry, channel selection and cache write. Every
// artifact produced along the way is removed before Deliver returns.
func (r *Router) Deliver(ctx context.Context, req Request) (Outcome, error) {
	sink := req.Sink
	if sink == nil {
		sink = progress.Discard
	}

	if entry, ok := r.store.CachedFile(req.SubjectID, req.SubUnitID, string(req.Format)); ok {
		log.Infof("cache hit for %s (%s)", req.DisplayName, req.Format)
		return Outcome{Handle: entry.FileID, FromCache: true}, nil
	}

	artifact, err := req.Produce(ctx, false)
	if err != nil {
		return Outcome{UserMessage: "Could not assemble the archive."}, err
	}

	compressed := false
	if artifact.Size > r.primary.MaxSize() {
		log.Infof("%s is %d bytes, over the %d byte limit, retrying compressed",
			req.DisplayName, artifact.Size, r.primary.MaxSize())

		artifact.Remove()
		artifact, err = req.Produce(ctx, true)
		if err != nil {
			return Outcome{UserMessage: "Could not assemble the archive."}, err
		}
		compressed = true
	}
	defer artifact.Remove()

	channel := r.primary
	if artifact.Size > r.primary.MaxSize() {
		if r.alternate == nil || artifact.Size > r.alternate.MaxSize() {
			r.logError("delivery", "artifact too large after compression",
				fmt.Sprintf("unit=%s size=%d", req.SubUnitID, artifact.Size))
			return Outcome{
				Compressed: compressed,
				UserMessage: fmt.Sprintf(
					"The file is too large to send even after compression (limit %d MB).",
					r.primary.MaxSize()>>20),
			}, ErrTooLarge
		}

		channel = r.alternate
	}

	handle, err := channel.Send(ctx, artifact, req.DisplayName, sink)
	if err != nil {
		r.logError("delivery", err.Error(),
			fmt.Sprintf("unit=%s channel=%s", req.SubUnitID, channel.Name()))

		message := "Sending the file failed."
		if channel == r.alternate {
			message = "Sending the file failed. Try downloading per chapter instead."
		}
		return Outcome{Compressed: compressed, UserMessage: message},
			fmt.Errorf("failed to send via %s: %s", channel.Name(), err)
	}

	err = r.store.CacheFile(req.SubjectID, req.SubUnitID, string(req.Format),
		handle, req.DisplayName+req.Format.Ext())
	if err != nil {
		// The file reached the user, a failed cache write only costs a
		// future cache miss.
		log.Warnf("%s", err)
	}

	return Outcome{Handle: handle, Compressed: compressed}, nil
}

func (r *Router) logError(kind, message, context string) {
	r.store.LogError(kind, message, context)
}
