package mp4extractor

import "io"

// avccToAnnexB rewrites 4 byte length-prefixed NAL units from src into dst
// with start codes. The output is never longer than the input. Trailing
// bytes that do not form a whole NAL unit are dropped.
func avccToAnnexB(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, io.ErrShortBuffer
	}
	n := 0
	for off := 0; off+4 <= len(src); {
		naluLen := int(src[off])<<24 | int(src[off+1])<<16 | int(src[off+2])<<8 | int(src[off+3])
		off += 4
		if naluLen < 0 || off+naluLen > len(src) {
			break
		}
		n += copy(dst[n:], []byte{0, 0, 0, 1})
		n += copy(dst[n:], src[off:off+naluLen])
		off += naluLen
	}
	return n, nil
}
