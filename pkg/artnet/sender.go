package artnet

import (
	"fmt"
	"net"
	"strconv"

	"github.com/shenghaoyang/ola-video-convert/internal/stream"
	"github.com/shenghaoyang/ola-video-convert/internal/universe"
)

// Sender broadcasts every decoded universe of every frame as an ArtDmx
// packet. It implements stream.Sink.
type Sender struct {
	conn     *net.UDPConn
	sequence byte
}

// NewSender opens a UDP socket towards addr (typically a broadcast
// address) on the given port.
func NewSender(addr string, port int) (*Sender, error) {
	if port <= 0 {
		port = DefaultPort
	}

	udpAddr, err := net.ResolveUDPAddr("udp4", addr+":"+strconv.Itoa(port))
	if err != nil {
		return nil, fmt.Errorf("resolving Art-Net address: %w", err)
	}
	conn, err := net.DialUDP("udp4", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("opening Art-Net socket: %w", err)
	}

	return &Sender{conn: conn}, nil
}

// GeometryChanged implements stream.Sink; ArtDmx packets are
// self-describing, so geometry changes need no announcement.
func (s *Sender) GeometryChanged(stream.Geometry) {}

// WriteFrame implements stream.Sink, sending one packet per universe.
func (s *Sender) WriteFrame(universes []universe.Universe) error {
	for _, u := range universes {
		s.sequence++
		packet := BuildDMXPacket(u.Number, u.Data, s.sequence)
		if _, err := s.conn.Write(packet); err != nil {
			return fmt.Errorf("sending ArtDmx for universe %d: %w", u.Number, err)
		}
	}
	return nil
}

// Close closes the socket. No blackout is sent: the converter relays
// frames, it does not own the fixtures' idle state.
func (s *Sender) Close() error {
	return s.conn.Close()
}
