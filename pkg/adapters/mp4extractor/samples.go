package mp4extractor

import (
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
)

// sampleEntry locates one sample of the selected track, in decode order.
type sampleEntry struct {
	offset int64
	size   int
	ptsUs  int64
	sync   bool
	// data holds the payload for fragmented files, which are kept in memory.
	data []byte
}

func toMicros(t uint64, timescale uint32) int64 {
	if timescale == 0 {
		return 0
	}
	return int64(t * 1_000_000 / uint64(timescale))
}

// progressiveSamples indexes a trak whose samples live in mdat.
func progressiveSamples(trak *mp4.TrakBox) ([]sampleEntry, int, error) {
	stbl := sampleTable(trak)
	if stbl == nil || stbl.Stsz == nil || stbl.Stsc == nil {
		return nil, 0, fmt.Errorf("no sample table found")
	}
	if stbl.Stco == nil && stbl.Co64 == nil {
		return nil, 0, fmt.Errorf("no stco or co64 box")
	}
	var timescale uint32 = 1000
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		timescale = trak.Mdia.Mdhd.Timescale
	}

	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	count := stbl.Stsz.SampleNumber
	entries := make([]sampleEntry, 0, count)
	maxSize := 0
	prevChunk := -1
	var offset uint64
	for nr := uint32(1); nr <= count; nr++ {
		chunkNr, _, err := stbl.Stsc.ChunkNrFromSampleNr(int(nr))
		if err != nil {
			return nil, 0, fmt.Errorf("sample %d: %w", nr, err)
		}
		if chunkNr != prevChunk {
			offset, err = chunkOffset(stbl, chunkNr)
			if err != nil {
				return nil, 0, fmt.Errorf("sample %d: %w", nr, err)
			}
			prevChunk = chunkNr
		}
		size := int(stbl.Stsz.GetSampleSize(int(nr)))

		var decodeTime uint64
		if stbl.Stts != nil {
			decodeTime, _ = stbl.Stts.GetDecodeTime(nr)
		}
		pts := int64(decodeTime)
		if stbl.Ctts != nil {
			pts += int64(stbl.Ctts.GetCompositionTimeOffset(nr))
		}
		if pts < 0 {
			pts = 0
		}

		entries = append(entries, sampleEntry{
			offset: int64(offset),
			size:   size,
			ptsUs:  toMicros(uint64(pts), timescale),
			sync:   stbl.Stss == nil || syncSamples[nr],
		})
		offset += uint64(size)
		maxSize = max(maxSize, size)
	}
	return entries, maxSize, nil
}

func chunkOffset(stbl *mp4.StblBox, chunkNr int) (uint64, error) {
	if stbl.Stco != nil {
		return stbl.Stco.GetOffset(chunkNr)
	}
	if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
		return 0, fmt.Errorf("chunk %d out of range", chunkNr)
	}
	return stbl.Co64.ChunkOffset[chunkNr-1], nil
}

// fragmentedSamples collects the samples of trackID from every fragment.
func fragmentedSamples(f *mp4.File, trackID uint32, timescale uint32) ([]sampleEntry, int, error) {
	var trex *mp4.TrexBox
	if f.Init != nil && f.Init.Moov != nil && f.Init.Moov.Mvex != nil {
		for _, t := range f.Init.Moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}
	if trex == nil {
		trex = &mp4.TrexBox{TrackID: trackID}
	}
	if timescale == 0 {
		timescale = 1000
	}

	var entries []sampleEntry
	maxSize := 0
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil || len(frag.Moof.Trafs) == 0 {
				continue
			}
			// Returns nothing when the fragment has no traf for trackID.
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return nil, 0, fmt.Errorf("get samples: %w", err)
			}
			for _, s := range samples {
				pts := int64(s.DecodeTime) + int64(s.CompositionTimeOffset)
				if pts < 0 {
					pts = 0
				}
				entries = append(entries, sampleEntry{
					size:  len(s.Data),
					ptsUs: toMicros(uint64(pts), timescale),
					sync:  !mp4.DecodeSampleFlags(s.Flags).SampleIsNonSync || len(entries) == 0,
					data:  s.Data,
				})
				maxSize = max(maxSize, len(s.Data))
			}
		}
	}
	return entries, maxSize, nil
}
