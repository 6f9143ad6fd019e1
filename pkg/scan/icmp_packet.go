/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scan

import (
	"encoding/binary"
	"net"
	"time"

	"github.com/carverauto/lanscan/internal/fastsum"
)

const (
	icmpTypeEchoReply    = 0
	icmpTypeEchoRequest  = 8
	icmpTypeTimeExceeded = 11

	icmpHeaderLen = 8

	// DefaultICMPPayloadSize matches the classic ping payload.
	DefaultICMPPayloadSize = 56
	maxICMPPayloadSize     = 65507 - icmpHeaderLen

	// A time-exceeded body carries the original IPv4 header (20 bytes) and
	// the first 8 bytes of the original ICMP message, whose identifier and
	// sequence number sit at offsets 8+20+4 and 8+20+6.
	timeExceededIDOffset  = 32
	timeExceededSeqOffset = 34
)

// ResponseKind classifies the outcome of one probe.
type ResponseKind int

const (
	EchoReply ResponseKind = iota
	TimeExceeded
	Timeout
	ResponseError
)

func (k ResponseKind) String() string {
	switch k {
	case EchoReply:
		return "echo-reply"
	case TimeExceeded:
		return "time-exceeded"
	case Timeout:
		return "timeout"
	case ResponseError:
		return "error"
	}

	return "unknown"
}

// ICMPResponse is the parsed result of a probe.
type ICMPResponse struct {
	Kind     ResponseKind
	Sequence uint16
	// ID is the echo identifier, taken from the quoted request for
	// time-exceeded messages.
	ID       uint16
	SourceIP string
	RTT      time.Duration
	Err      error
}

// BuildEchoRequest builds an ICMP echo request: 8-byte header with big-endian
// identifier and sequence, followed by payloadSize bytes where byte i is i&0xff.
func BuildEchoRequest(seq uint16, payloadSize int, id uint16) ([]byte, error) {
	if payloadSize < 0 || payloadSize > maxICMPPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	pkt := make([]byte, icmpHeaderLen+payloadSize)
	pkt[0] = icmpTypeEchoRequest
	pkt[1] = 0
	binary.BigEndian.PutUint16(pkt[4:], id)
	binary.BigEndian.PutUint16(pkt[6:], seq)

	for i := 0; i < payloadSize; i++ {
		pkt[icmpHeaderLen+i] = byte(i & 0xff)
	}

	binary.BigEndian.PutUint16(pkt[2:], fastsum.Checksum(pkt))

	return pkt, nil
}

// ParseResponse interprets a received datagram. Some kernels deliver the IPv4
// header in front of the ICMP message; it is skipped when present.
func ParseResponse(buf []byte, src net.Addr, rtt time.Duration) ICMPResponse {
	resp := ICMPResponse{SourceIP: addrIP(src), RTT: rtt, Kind: ResponseError}

	offset := 0
	if len(buf) >= 20 && buf[0]>>4 == 4 {
		offset = int(buf[0]&0x0f) * 4
		if offset < 20 {
			resp.Err = ErrBadIPv4HeaderLen
			return resp
		}
	}

	if len(buf) < offset+icmpHeaderLen {
		resp.Err = ErrShortICMPMessage
		return resp
	}

	msg := buf[offset:]

	switch msg[0] {
	case icmpTypeEchoReply:
		resp.Kind = EchoReply
		resp.ID = binary.BigEndian.Uint16(msg[4:6])
		resp.Sequence = binary.BigEndian.Uint16(msg[6:8])
	case icmpTypeTimeExceeded:
		if len(msg) < timeExceededSeqOffset+2 {
			resp.Err = ErrShortICMPMessage
			return resp
		}

		resp.Kind = TimeExceeded
		resp.ID = binary.BigEndian.Uint16(msg[timeExceededIDOffset:])
		resp.Sequence = binary.BigEndian.Uint16(msg[timeExceededSeqOffset:])
	default:
		resp.Err = ErrUnexpectedICMP
	}

	return resp
}

func addrIP(a net.Addr) string {
	switch v := a.(type) {
	case *net.UDPAddr:
		return v.IP.String()
	case *net.IPAddr:
		return v.IP.String()
	case nil:
		return ""
	}

	host, _, err := net.SplitHostPort(a.String())
	if err != nil {
		return a.String()
	}

	return host
}
