/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package wire

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mmahmood233/localhost/internal/header"
)

// chunkState is the chunked-decoder state machine from spec §3/§4.1a.
type chunkState int

const (
	chunkAwaitingSize chunkState = iota
	chunkReadingData
	chunkAwaitingTerminator
	chunkReadingTrailers
	chunkComplete
	chunkErrored
)

var (
	ErrMalformedChunkSize       = errors.New("wire: malformed chunk size")
	ErrChunkTooLarge            = errors.New("wire: chunk exceeds per-chunk cap")
	ErrMalformedChunkTerminator = errors.New("wire: malformed chunk terminator")
	ErrChunkSizeLineTooLong     = errors.New("wire: chunk size line too long")
	ErrEncoderFinalized         = errors.New("wire: chunked encoder already finalized")
)

// maxChunkSizeLine bounds the "HEX[;ext]" line so a hostile peer can't
// stall the decoder in chunkAwaitingSize forever without ever sending a
// CRLF.
const maxChunkSizeLine = 4096

// ChunkedDecoder incrementally decodes an HTTP/1.1 chunked transfer-coded
// body. It is driven by the wire Parser (via feed) but is also usable
// standalone, which is what the chunked round-trip test in spec §8
// exercises directly against ChunkedEncoder.
type ChunkedDecoder struct {
	state          chunkState
	chunkRemaining int64
	decoded        []byte
	trailer        header.Header
	perChunkCap    int64
	totalCap       int64
	err            error
}

// NewChunkedDecoder returns a decoder enforcing perChunkCap bytes per chunk
// and totalCap bytes across the whole decoded body (either may be 0 to mean
// "unbounded", though the wire Parser always supplies real limits).
func NewChunkedDecoder(perChunkCap, totalCap int64) *ChunkedDecoder {
	return &ChunkedDecoder{state: chunkAwaitingSize, perChunkCap: perChunkCap, totalCap: totalCap, trailer: header.New()}
}

// State reports the decoder's current stage.
func (d *ChunkedDecoder) State() chunkState { return d.state }

// Decoded returns the body bytes decoded so far.
func (d *ChunkedDecoder) Decoded() []byte { return d.decoded }

// Trailer returns any trailer headers read after the final (zero-size)
// chunk. Per spec §4.1a.4 these are not merged into the request's main
// header map.
func (d *ChunkedDecoder) Trailer() header.Header { return d.trailer }

// Feed decodes as much of buf as it can (consuming a prefix of it) and
// reports whether decoding is complete.
func (d *ChunkedDecoder) Feed(buf []byte) (consumed int, done bool, err error) {
	rest := buf
	_, err = d.feed(&rest)
	consumed = len(buf) - len(rest)
	return consumed, d.state == chunkComplete, err
}

// feed is the shared engine used both by Feed and by the wire Parser,
// which threads its own accumulation buffer through by pointer so chunked
// decoding composes with request-body parsing without a copy.
func (d *ChunkedDecoder) feed(bufp *[]byte) (bool, error) {
	progressed := false
	for {
		switch d.state {
		case chunkAwaitingSize:
			line, rest, found := scanLine(*bufp)
			if !found {
				if len(*bufp) > maxChunkSizeLine {
					d.state, d.err = chunkErrored, ErrChunkSizeLineTooLong
					return progressed, d.err
				}
				return progressed, nil
			}
			*bufp = rest
			progressed = true

			sizeToken := line
			if semi := bytes.IndexByte(sizeToken, ';'); semi >= 0 {
				sizeToken = sizeToken[:semi]
			}
			size, err := parseHexUint(bytes.TrimSpace(sizeToken))
			if err != nil {
				d.state, d.err = chunkErrored, ErrMalformedChunkSize
				return progressed, d.err
			}
			if size == 0 {
				d.state = chunkReadingTrailers
				continue
			}
			if d.perChunkCap > 0 && int64(size) > d.perChunkCap {
				d.state, d.err = chunkErrored, ErrChunkTooLarge
				return progressed, d.err
			}
			if d.totalCap > 0 && int64(len(d.decoded))+int64(size) > d.totalCap {
				d.state, d.err = chunkErrored, ErrBodyTooLarge
				return progressed, d.err
			}
			d.chunkRemaining = int64(size)
			d.state = chunkReadingData

		case chunkReadingData:
			if d.chunkRemaining == 0 {
				d.state = chunkAwaitingTerminator
				continue
			}
			if len(*bufp) == 0 {
				return progressed, nil
			}
			n := int64(len(*bufp))
			if n > d.chunkRemaining {
				n = d.chunkRemaining
			}
			d.decoded = append(d.decoded, (*bufp)[:n]...)
			*bufp = (*bufp)[n:]
			d.chunkRemaining -= n
			progressed = true
			if d.chunkRemaining == 0 {
				d.state = chunkAwaitingTerminator
			}

		case chunkAwaitingTerminator:
			if len(*bufp) < 2 {
				return progressed, nil
			}
			if (*bufp)[0] != '\r' || (*bufp)[1] != '\n' {
				d.state, d.err = chunkErrored, ErrMalformedChunkTerminator
				return progressed, d.err
			}
			*bufp = (*bufp)[2:]
			progressed = true
			d.state = chunkAwaitingSize

		case chunkReadingTrailers:
			line, rest, found := scanLine(*bufp)
			if !found {
				return progressed, nil
			}
			*bufp = rest
			progressed = true
			if len(line) == 0 {
				d.state = chunkComplete
				return progressed, nil
			}
			name, value, err := parseHeaderLine(line)
			if err != nil {
				d.state, d.err = chunkErrored, err
				return progressed, err
			}
			d.trailer.Add(name, value)

		case chunkComplete, chunkErrored:
			return progressed, d.err
		}
	}
}

func parseHexUint(v []byte) (uint64, error) {
	if len(v) == 0 {
		return 0, ErrMalformedChunkSize
	}
	var n uint64
	for i, b := range v {
		var digit byte
		switch {
		case '0' <= b && b <= '9':
			digit = b - '0'
		case 'a' <= b && b <= 'f':
			digit = b - 'a' + 10
		case 'A' <= b && b <= 'F':
			digit = b - 'A' + 10
		default:
			return 0, ErrMalformedChunkSize
		}
		if i >= 16 {
			return 0, ErrMalformedChunkSize
		}
		n = n<<4 | uint64(digit)
	}
	return n, nil
}

// ChunkedEncoder emits the chunked wire format for a response body written
// incrementally. Each Encode call is one chunk; Finalize emits the
// zero-size terminating chunk and any trailers, after which the encoder
// refuses further writes (spec §4.1a: "The encoder refuses further data
// once finalized").
type ChunkedEncoder struct {
	finalized bool
}

// NewChunkedEncoder returns a ready-to-use encoder.
func NewChunkedEncoder() *ChunkedEncoder { return &ChunkedEncoder{} }

// Encode wraps data as one chunk. Calling Encode with no data is a no-op
// (it must not be mistaken for the zero-size terminating chunk).
func (e *ChunkedEncoder) Encode(data []byte) ([]byte, error) {
	if e.finalized {
		return nil, ErrEncoderFinalized
	}
	if len(data) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%x\r\n", len(data))
	buf.Write(data)
	buf.WriteString("\r\n")
	return buf.Bytes(), nil
}

// Finalize emits the terminating zero-size chunk, optional trailers, and
// the final CRLF.
func (e *ChunkedEncoder) Finalize(trailer header.Header) ([]byte, error) {
	if e.finalized {
		return nil, ErrEncoderFinalized
	}
	e.finalized = true
	var buf bytes.Buffer
	buf.WriteString("0\r\n")
	if len(trailer) > 0 {
		if err := trailer.Write(&buf); err != nil {
			return nil, err
		}
	}
	buf.WriteString("\r\n")
	return buf.Bytes(), nil
}
