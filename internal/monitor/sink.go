package monitor

import (
	"strconv"

	"github.com/shenghaoyang/ola-video-convert/internal/pubsub"
	"github.com/shenghaoyang/ola-video-convert/internal/stream"
	"github.com/shenghaoyang/ola-video-convert/internal/universe"
)

// UniverseUpdate is the per-universe document streamed to websocket
// clients.
type UniverseUpdate struct {
	Frame    uint64 `json:"frame"`
	Universe uint16 `json:"universe"`
	Channels []int  `json:"channels"`
}

// GeometryUpdate announces a geometry change to websocket clients.
type GeometryUpdate struct {
	UniverseCount int `json:"universeCount"`
	SegmentSize   int `json:"segmentSize"`
	FrameLength   int `json:"frameLength"`
}

// Sink publishes decoded frames into the pub/sub fabric. It implements
// stream.Sink and never blocks: slow monitor clients drop updates
// instead of stalling the converter.
type Sink struct {
	ps     *pubsub.PubSub
	frames uint64
}

// NewSink returns a sink publishing to ps.
func NewSink(ps *pubsub.PubSub) *Sink {
	return &Sink{ps: ps}
}

// GeometryChanged implements stream.Sink.
func (s *Sink) GeometryChanged(g stream.Geometry) {
	s.ps.Publish(pubsub.TopicGeometryChanged, "", GeometryUpdate{
		UniverseCount: g.UniverseCount,
		SegmentSize:   g.SegmentSize,
		FrameLength:   g.FrameLength(),
	})
}

// WriteFrame implements stream.Sink.
func (s *Sink) WriteFrame(universes []universe.Universe) error {
	for _, u := range universes {
		channels := make([]int, len(u.Data))
		for i, v := range u.Data {
			channels[i] = int(v)
		}
		s.ps.Publish(pubsub.TopicFrameDecoded, strconv.Itoa(int(u.Number)), UniverseUpdate{
			Frame:    s.frames,
			Universe: u.Number,
			Channels: channels,
		})
	}
	s.frames++
	return nil
}
