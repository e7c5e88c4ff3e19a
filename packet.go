package pinger

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"
)

const (
	// EchoHeaderLen is the size of an ICMP echo header, which is also the whole
	// size of the requests sent by this package.
	EchoHeaderLen = 8

	// IPv4HeaderLen is the size of an IPv4 header without options.
	IPv4HeaderLen = ipv4.HeaderLen
)

// EchoReply is an ICMP message received from the network.
//
// It is not necessarily an echo reply; see IsEchoReply.
type EchoReply struct {
	Type ipv4.ICMPType
	Code uint8
	ID   uint16
	Seq  uint16
}

// IsEchoReply returns true if the message is an ICMP echo reply.
func (r EchoReply) IsEchoReply() bool {
	return r.Type == ipv4.ICMPTypeEchoReply
}

// EncodeEchoRequest makes an ICMP echo request header with checksum.
func EncodeEchoRequest(id, seq uint16) []byte {
	return encodeEcho(ipv4.ICMPTypeEcho, id, seq)
}

func encodeEcho(typ ipv4.ICMPType, id, seq uint16) []byte {
	b := make([]byte, EchoHeaderLen)
	b[0] = byte(typ)
	b[1] = 0
	binary.BigEndian.PutUint16(b[4:6], id)
	binary.BigEndian.PutUint16(b[6:8], seq)
	binary.BigEndian.PutUint16(b[2:4], Checksum(b))
	return b
}

// DecodeEchoReply parses an ICMP header placed after ipHeaderLen bytes of
// network layer header.
//
// It returns ErrTruncated if b is too short.
func DecodeEchoReply(b []byte, ipHeaderLen int) (EchoReply, error) {
	if ipHeaderLen < 0 || len(b)-ipHeaderLen < EchoHeaderLen {
		return EchoReply{}, errors.Wrapf(ErrTruncated, "%d bytes with %d bytes IP header", len(b), ipHeaderLen)
	}

	b = b[ipHeaderLen:]

	return EchoReply{
		Type: ipv4.ICMPType(b[0]),
		Code: b[1],
		ID:   binary.BigEndian.Uint16(b[4:6]),
		Seq:  binary.BigEndian.Uint16(b[6:8]),
	}, nil
}
