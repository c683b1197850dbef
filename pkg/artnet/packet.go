// Package artnet builds and transmits Art-Net ArtDmx packets.
package artnet

import (
	"encoding/binary"
)

const (
	// OpCodeDMX is the Art-Net operation code for DMX data.
	OpCodeDMX uint16 = 0x5000
	// ProtocolVersion is the Art-Net protocol version.
	ProtocolVersion uint16 = 14
	// DMXDataLength is the number of DMX channels per universe.
	DMXDataLength = 512
	// HeaderSize is the size of the ArtDmx header preceding the data.
	HeaderSize = 18
	// PacketSize is the total size of an ArtDmx packet carrying a full
	// universe.
	PacketSize = HeaderSize + DMXDataLength
	// DefaultPort is the standard Art-Net UDP port.
	DefaultPort = 6454
)

// ArtNetID is the Art-Net packet identifier.
var ArtNetID = []byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00}

// BuildDMXPacket creates an ArtDmx packet for a universe. The universe
// number is used as decoded from the stream (0-based on the wire).
// Data shorter than 512 channels is zero padded; longer data is
// truncated. Sequence should increment per packet so receivers can
// spot reordered UDP datagrams.
func BuildDMXPacket(universe uint16, data []byte, sequence byte) []byte {
	packet := make([]byte, PacketSize)

	copy(packet[0:8], ArtNetID)
	binary.LittleEndian.PutUint16(packet[8:10], OpCodeDMX)
	binary.BigEndian.PutUint16(packet[10:12], ProtocolVersion)
	packet[12] = sequence
	packet[13] = 0 // physical input port
	binary.LittleEndian.PutUint16(packet[14:16], universe)
	binary.BigEndian.PutUint16(packet[16:18], DMXDataLength)

	if len(data) > DMXDataLength {
		data = data[:DMXDataLength]
	}
	copy(packet[HeaderSize:], data)

	return packet
}
