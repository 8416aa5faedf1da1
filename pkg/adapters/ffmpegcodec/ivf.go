package ffmpegcodec

import (
	"encoding/binary"
	"io"
)

const (
	ivfFileHeaderSize  = 32
	ivfFrameHeaderSize = 12
)

// writeIVFHeader writes the 32 byte IVF file header. The frame count is
// left at zero because the stream length is unknown.
func writeIVFHeader(w io.Writer, fourcc string, width, height int, rateNum, rateDen uint32) error {
	var hdr [ivfFileHeaderSize]byte
	copy(hdr[0:4], "DKIF")
	binary.LittleEndian.PutUint16(hdr[4:], 0)
	binary.LittleEndian.PutUint16(hdr[6:], ivfFileHeaderSize)
	copy(hdr[8:12], fourcc)
	binary.LittleEndian.PutUint16(hdr[12:], uint16(width))
	binary.LittleEndian.PutUint16(hdr[14:], uint16(height))
	binary.LittleEndian.PutUint32(hdr[16:], rateDen)
	binary.LittleEndian.PutUint32(hdr[20:], rateNum)
	_, err := w.Write(hdr[:])
	return err
}

// writeIVFFrame writes one frame header followed by the payload.
func writeIVFFrame(w io.Writer, payload []byte, timestamp uint64) error {
	var hdr [ivfFrameHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(payload)))
	binary.LittleEndian.PutUint64(hdr[4:], timestamp)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
