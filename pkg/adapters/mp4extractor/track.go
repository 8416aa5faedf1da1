package mp4extractor

import (
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/fakecam/pkg/ports"
)

// sampleEntryMIME maps stsd sample entry types to codec identifiers.
var sampleEntryMIME = map[string]string{
	"avc1": ports.MIMEVideoAVC,
	"avc3": ports.MIMEVideoAVC,
	"hvc1": ports.MIMEVideoHEVC,
	"hev1": ports.MIMEVideoHEVC,
	"vp08": ports.MIMEVideoVP8,
	"vp09": ports.MIMEVideoVP9,
	"av01": ports.MIMEVideoAV1,
	"mp4v": "video/mp4v-es",
	"s263": "video/3gpp",
	"mp4a": ports.MIMEAudioAAC,
	"Opus": ports.MIMEAudioOpus,
	"samr": "audio/3gpp",
}

// trackFormat describes trak without touching its samples.
func trackFormat(trak *mp4.TrakBox) ports.TrackFormat {
	var tf ports.TrackFormat
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return tf
	}

	switch trak.Mdia.Hdlr.HandlerType {
	case "vide":
		tf.MediaType = ports.MediaTypeVideo
		tf.MIME = "video/unknown"
	case "soun":
		tf.MediaType = ports.MediaTypeAudio
		tf.MIME = "audio/unknown"
	default:
		tf.MIME = "application/octet-stream"
	}

	if trak.Tkhd != nil {
		tf.Width = int(uint32(trak.Tkhd.Width) >> 16)
		tf.Height = int(uint32(trak.Tkhd.Height) >> 16)
	}

	var timescale uint32
	if trak.Mdia.Mdhd != nil {
		timescale = trak.Mdia.Mdhd.Timescale
		if timescale > 0 {
			tf.DurationUs = int64(trak.Mdia.Mdhd.Duration * 1_000_000 / uint64(timescale))
		}
	}

	stbl := sampleTable(trak)
	if stbl == nil {
		return tf
	}
	if stbl.Stsd != nil {
		for _, child := range stbl.Stsd.Children {
			if mime, ok := sampleEntryMIME[child.Type()]; ok {
				tf.MIME = mime
			}
			if vse, ok := child.(*mp4.VisualSampleEntryBox); ok && vse.Width > 0 && vse.Height > 0 {
				tf.Width = int(vse.Width)
				tf.Height = int(vse.Height)
			}
			break
		}
	}
	if stbl.Stsz != nil && tf.DurationUs > 0 && stbl.Stsz.SampleNumber > 0 {
		tf.FrameRate = float64(stbl.Stsz.SampleNumber) * 1e6 / float64(tf.DurationUs)
	}
	return tf
}

func sampleTable(trak *mp4.TrakBox) *mp4.StblBox {
	if trak.Mdia == nil || trak.Mdia.Minf == nil {
		return nil
	}
	return trak.Mdia.Minf.Stbl
}

// parameterSets returns the parameter sets of an AVC or HEVC track in
// Annex B form: SPS and PPS for AVC, the hvcC arrays in record order
// (normally VPS, SPS, PPS) for HEVC.
func parameterSets(trak *mp4.TrakBox) []byte {
	stbl := sampleTable(trak)
	if stbl == nil || stbl.Stsd == nil {
		return nil
	}
	var out []byte
	appendNalu := func(nalu []byte) {
		out = append(out, 0, 0, 0, 1)
		out = append(out, nalu...)
	}
	for _, child := range stbl.Stsd.Children {
		vse, ok := child.(*mp4.VisualSampleEntryBox)
		if !ok {
			continue
		}
		switch {
		case vse.AvcC != nil:
			for _, sps := range vse.AvcC.SPSnalus {
				appendNalu(sps)
			}
			for _, pps := range vse.AvcC.PPSnalus {
				appendNalu(pps)
			}
		case vse.HvcC != nil:
			for _, array := range vse.HvcC.NaluArrays {
				for _, nalu := range array.Nalus {
					appendNalu(nalu)
				}
			}
		}
	}
	return out
}

// lengthPrefixed reports whether samples of mime carry 4 byte NAL unit
// lengths that must be rewritten as start codes.
func lengthPrefixed(mime string) bool {
	return mime == ports.MIMEVideoAVC || mime == ports.MIMEVideoHEVC
}
