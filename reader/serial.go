package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

const (
	DefaultSerialBaud = 115200
	frameLen          = 9
)

var framePreamble = []byte{0x02, 0x09}

// Serial reads framed tags from a serial RFID reader.
// Frame: 0x02 0x09 d0..d4 xor 0x03. xor covers 0x09 through d4 and the
// tag is d1..d4 big-endian, reported in decimal.
type Serial struct {
	port    io.ReadCloser
	device  string
	pending []byte
	log     zerolog.Logger
}

// NewSerial opens device at baud (DefaultSerialBaud when zero).
func NewSerial(device string, baud int, log zerolog.Logger) (*Serial, error) {
	if baud == 0 {
		baud = DefaultSerialBaud
	}
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: time.Second,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	return newSerial(port, device, log), nil
}

func newSerial(port io.ReadCloser, device string, log zerolog.Logger) *Serial {
	return &Serial{port: port, device: device, log: log}
}

// Read implements Reader.Read.
func (s *Serial) Read(ctx context.Context) (string, error) {
	buf := make([]byte, 64)
	for {
		if tag, ok := s.nextFrame(); ok {
			return tag, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := s.port.Read(buf)
		if n > 0 {
			s.pending = append(s.pending, buf[:n]...)
		}
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("read serial %s: %w", s.device, err)
		}
	}
}

// nextFrame consumes pending bytes up to and including the first valid
// frame. Bytes that cannot start a frame are discarded.
func (s *Serial) nextFrame() (string, bool) {
	for {
		i := bytes.Index(s.pending, framePreamble)
		if i < 0 {
			// keep a trailing 0x02 that may start the next frame
			if n := len(s.pending); n > 0 && s.pending[n-1] == framePreamble[0] {
				s.pending = s.pending[n-1:]
			} else {
				s.pending = s.pending[:0]
			}
			return "", false
		}
		s.pending = s.pending[i:]
		if len(s.pending) < frameLen {
			return "", false
		}
		tag, err := parseFrame(s.pending[:frameLen])
		if err != nil {
			s.log.Warn().Err(err).Hex("frame", s.pending[:frameLen]).Msg("bad serial frame")
			s.pending = s.pending[1:]
			continue
		}
		s.pending = s.pending[frameLen:]
		return tag, true
	}
}

func parseFrame(f []byte) (string, error) {
	if len(f) != frameLen || !bytes.Equal(f[0:2], framePreamble) {
		return "", fmt.Errorf("bad preamble")
	}
	if f[8] != 0x03 {
		return "", fmt.Errorf("bad terminator 0x%02x", f[8])
	}
	data := f[1:7]
	xor := data[0]
	for _, b := range data[1:] {
		xor ^= b
	}
	if xor != f[7] {
		return "", fmt.Errorf("checksum 0x%02x, want 0x%02x", f[7], xor)
	}
	tag := uint64(data[2])<<24 | uint64(data[3])<<16 | uint64(data[4])<<8 | uint64(data[5])
	return strconv.FormatUint(tag, 10), nil
}

// Close implements Reader.Close.
func (s *Serial) Close() error {
	return s.port.Close()
}
