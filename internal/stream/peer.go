package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/syncwatch/internal/client"
	"github.com/BioHazard786/syncwatch/internal/config"
	"github.com/BioHazard786/syncwatch/internal/protocol"
)

// MediaChannel is the data channel label for video frames.
const MediaChannel = "media"

// Signal payload types
const (
	SignalOffer     = "offer"
	SignalAnswer    = "answer"
	SignalCandidate = "candidate"
)

// Data channel flow control
const (
	highWaterMark = 2 * 1024 * 1024 // 2 MB - backpressure threshold
	lowWaterMark  = 512 * 1024      // 512 KB - resume threshold
	sendTimeout   = 60 * time.Second
	drainTimeout  = 30 * time.Second
)

var (
	ErrUnexpectedSignal = errors.New("unexpected signal type")
	ErrChannelClosed    = errors.New("channel closed")
	ErrBufferTimeout    = errors.New("buffer drain timeout")
	ErrHostLeft         = errors.New("host left the room")
)

// Sender is the part of the relay client a session needs.
type Sender interface {
	Send(event string, payload any) error
}

// SignalPayload is the negotiation message carried opaquely by the relay.
type SignalPayload struct {
	Type      string                 `json:"type"`
	SDP       string                 `json:"sdp,omitempty"`
	Candidate *pion.ICECandidateInit `json:"candidate,omitempty"`
}

// NewPeerConnection builds a pion peer connection from the configured ICE servers.
func NewPeerConnection(cfg *config.Config) (*pion.PeerConnection, error) {
	var iceServers []pion.ICEServer
	if stun := cfg.GetSTUNServers(); stun != nil {
		iceServers = append(iceServers, pion.ICEServer{URLs: stun})
	}
	if turn := cfg.GetTURNServers(); turn != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turn,
			Username:   username,
			Credential: password,
		})
	}

	pc, err := pion.NewPeerConnection(pion.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, client.NewError("create peer connection", err)
	}
	return pc, nil
}

// peer is one negotiated connection to a remote participant. Candidates that
// arrive before the remote description are held back.
type peer struct {
	pc       *pion.PeerConnection
	sig      Sender
	roomID   string
	localID  string
	remoteID string
	log      *slog.Logger

	mu        sync.Mutex
	hasRemote bool
	pending   []pion.ICECandidateInit
}

func newPeer(cfg *config.Config, sig Sender, roomID, localID, remoteID string, log *slog.Logger) (*peer, error) {
	pc, err := NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}

	p := &peer{
		pc:       pc,
		sig:      sig,
		roomID:   roomID,
		localID:  localID,
		remoteID: remoteID,
		log:      log.With("peer", remoteID),
	}

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		init := c.ToJSON()
		if err := p.signal(SignalPayload{Type: SignalCandidate, Candidate: &init}); err != nil {
			p.log.Debug("candidate not sent", "err", err)
		}
	})
	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		p.log.Debug("peer connection state", "state", state.String())
	})

	return p, nil
}

func (p *peer) signal(payload SignalPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return client.NewError("encode signal", err)
	}
	return p.sig.Send(protocol.EventSignal, protocol.Signal{
		RoomID:  p.roomID,
		From:    p.localID,
		To:      p.remoteID,
		Payload: raw,
	})
}

// offer creates and sends an SDP offer.
func (p *peer) offer() error {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return client.NewError("create offer", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return client.NewError("set local description", err)
	}
	desc := p.pc.LocalDescription()
	return p.signal(SignalPayload{Type: desc.Type.String(), SDP: desc.SDP})
}

// handleSignal applies an offer, answer or candidate from the remote side.
func (p *peer) handleSignal(raw json.RawMessage) error {
	var payload SignalPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return client.NewError("parse signal", err)
	}

	switch payload.Type {
	case SignalOffer:
		if err := p.setRemote(pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: payload.SDP}); err != nil {
			return err
		}
		answer, err := p.pc.CreateAnswer(nil)
		if err != nil {
			return client.NewError("create answer", err)
		}
		if err := p.pc.SetLocalDescription(answer); err != nil {
			return client.NewError("set local description", err)
		}
		desc := p.pc.LocalDescription()
		return p.signal(SignalPayload{Type: desc.Type.String(), SDP: desc.SDP})

	case SignalAnswer:
		return p.setRemote(pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: payload.SDP})

	case SignalCandidate:
		if payload.Candidate == nil {
			return nil
		}
		p.mu.Lock()
		if !p.hasRemote {
			p.pending = append(p.pending, *payload.Candidate)
			p.mu.Unlock()
			return nil
		}
		p.mu.Unlock()
		if err := p.pc.AddICECandidate(*payload.Candidate); err != nil {
			return client.NewError("add ICE candidate", err)
		}
		return nil

	default:
		return client.WrapError("handle signal", ErrUnexpectedSignal, payload.Type)
	}
}

func (p *peer) setRemote(desc pion.SessionDescription) error {
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return client.NewError("set remote description", err)
	}

	p.mu.Lock()
	p.hasRemote = true
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, c := range pending {
		if err := p.pc.AddICECandidate(c); err != nil {
			p.log.Debug("queued candidate rejected", "err", err)
		}
	}
	return nil
}

func (p *peer) close() {
	if err := p.pc.Close(); err != nil {
		p.log.Debug("peer close failed", "err", err)
	}
}

func (p *peer) state() string {
	return p.pc.ConnectionState().String()
}

// channelSender writes frames to a data channel with backpressure.
type channelSender struct {
	dc  *pion.DataChannel
	low chan struct{}
}

func newChannelSender(dc *pion.DataChannel) *channelSender {
	s := &channelSender{dc: dc, low: make(chan struct{}, 1)}
	dc.SetBufferedAmountLowThreshold(lowWaterMark)
	dc.OnBufferedAmountLow(func() {
		select {
		case s.low <- struct{}{}:
		default:
		}
	})
	return s
}

func (s *channelSender) isOpen() bool {
	return s.dc.ReadyState() == pion.DataChannelStateOpen
}

func (s *channelSender) waitForWindow(ctx context.Context) error {
	buffered := s.dc.BufferedAmount()
	if buffered < highWaterMark {
		return nil
	}

	select {
	case <-s.low:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sendTimeout):
		if s.dc.BufferedAmount() < buffered {
			return nil
		}
		return client.WrapError("send", ErrBufferTimeout, "buffer not draining")
	}
}

func (s *channelSender) send(ctx context.Context, f Frame) error {
	if !s.isOpen() {
		return ErrChannelClosed
	}
	if err := s.waitForWindow(ctx); err != nil {
		return err
	}
	data, err := f.Encode()
	if err != nil {
		return err
	}
	return s.dc.Send(data)
}

// drain waits until queued data has left or the channel closes.
func (s *channelSender) drain() {
	start := time.Now()
	for s.dc.BufferedAmount() > 0 && time.Since(start) < drainTimeout {
		if !s.isOpen() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}
