package collector

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"

	"github.com/nao1215/vpnsentry/internal/model"
)

// DefaultWebRTCTimeout is the hard cap on candidate gathering.
const DefaultWebRTCTimeout = 800 * time.Millisecond

// dottedQuad extracts an IPv4 address from an ICE candidate line.
var dottedQuad = regexp.MustCompile(`([0-9]{1,3}(\.[0-9]{1,3}){3})`)

// PeerConnection is the part of a WebRTC peer connection the leak
// collector needs. Candidates are delivered as their SDP attribute text.
type PeerConnection interface {
	// CreateDataChannel adds a data channel so that the offer carries
	// an application section and gathering starts.
	CreateDataChannel(label string) error

	// CreateOffer creates an offer and sets it as the local description.
	CreateOffer() error

	// OnCandidate registers fn for every gathered candidate. fn is
	// called once more with done=true when gathering completes.
	OnCandidate(fn func(candidate string, done bool))

	Close() error
}

// PeerFactory creates a peer connection without ICE servers.
type PeerFactory func() (PeerConnection, error)

// NewPionPeer is the PeerFactory backed by pion/webrtc.
func NewPionPeer() (PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}
	return &pionPeer{pc: pc}, nil
}

type pionPeer struct {
	pc *webrtc.PeerConnection
}

func (p *pionPeer) CreateDataChannel(label string) error {
	_, err := p.pc.CreateDataChannel(label, nil)
	return err
}

func (p *pionPeer) CreateOffer() error {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return err
	}
	return p.pc.SetLocalDescription(offer)
}

func (p *pionPeer) OnCandidate(fn func(candidate string, done bool)) {
	p.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			fn("", true)
			return
		}
		fn(c.ToJSON().Candidate, false)
	})
}

func (p *pionPeer) Close() error {
	return p.pc.Close()
}

// WebRTCCollector gathers ICE candidates and returns the addresses they
// reveal. Gathering is time boxed because some networks never signal
// completion.
type WebRTCCollector struct {
	factory PeerFactory
	timeout time.Duration
	logger  *slog.Logger
}

// NewWebRTCCollector creates a collector. A nil factory means the host has
// no peer-connection capability and Collect returns an empty set.
// A non-positive timeout uses DefaultWebRTCTimeout.
func NewWebRTCCollector(factory PeerFactory, timeout time.Duration, logger *slog.Logger) *WebRTCCollector {
	if timeout <= 0 {
		timeout = DefaultWebRTCTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebRTCCollector{factory: factory, timeout: timeout, logger: logger}
}

// Collect runs one gathering round. It returns when gathering completes,
// the cap elapses, or ctx is done, whichever comes first. The connection is
// always closed before returning.
func (w *WebRTCCollector) Collect(ctx context.Context) model.LeakAddressSet {
	if w.factory == nil {
		return model.LeakAddressSet{}
	}

	pc, err := w.factory()
	if err != nil {
		w.logger.Debug("webrtc unavailable", "error", err)
		return model.LeakAddressSet{}
	}
	defer func() {
		if err := pc.Close(); err != nil {
			w.logger.Debug("failed to close peer connection", "error", err)
		}
	}()

	var (
		mu     sync.Mutex
		leaks  model.LeakAddressSet
		done   = make(chan struct{})
		finish sync.Once
	)

	pc.OnCandidate(func(candidate string, complete bool) {
		if complete {
			finish.Do(func() { close(done) })
			return
		}
		addr := dottedQuad.FindString(candidate)
		if addr == "" {
			return
		}
		mu.Lock()
		leaks.Add(addr)
		mu.Unlock()
	})

	if err := pc.CreateDataChannel(""); err != nil {
		w.logger.Debug("failed to create data channel", "error", err)
		return model.LeakAddressSet{}
	}
	if err := pc.CreateOffer(); err != nil {
		w.logger.Debug("failed to create offer", "error", err)
		return model.LeakAddressSet{}
	}

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		w.logger.Debug("webrtc gathering capped", "timeout", w.timeout)
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	set := leaks.Clone()
	w.logger.Debug("webrtc gathering done", "leaks", set.Addresses())
	return set
}
