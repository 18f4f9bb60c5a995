package main

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/quietchannel/noise"
)

// writeFrame writes a length-prefixed Noise message to w: a big-endian
// uint16 byte count (bounded by noise.MaxMsgLen) followed by the message
// itself.
func writeFrame(w io.Writer, msg []byte) error {
	if len(msg) > noise.MaxMsgLen {
		return fmt.Errorf("noise-pipe: frame of %d bytes exceeds MaxMsgLen", len(msg))
	}
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(msg)))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}
	_, err := w.Write(msg)
	return err
}

// readFrame reads one length-prefixed frame written by writeFrame.
func readFrame(r io.Reader) ([]byte, error) {
	var length [2]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return nil, err
	}
	buf := make([]byte, binary.BigEndian.Uint16(length[:]))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
