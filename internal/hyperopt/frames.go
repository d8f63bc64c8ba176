package hyperopt

// Frame is one bounded batch of evaluations: checkpointing and
// best-result logging happen at frame boundaries.
type Frame struct {
	Index  int // frame number, 0-based
	Start  int // global sequence index of the frame's first evaluation
	Length int
}

// PartitionFrames splits a total evaluation budget into frames of at
// most frameSize evaluations. The frame lengths always sum to
// totalTries exactly; only the last frame may be short.
func PartitionFrames(totalTries, frameSize int) []Frame {
	if totalTries < 1 || frameSize < 1 {
		return nil
	}

	last := (totalTries - 1) / frameSize
	frames := make([]Frame, 0, last+1)
	for f := 0; f <= last; f++ {
		length := frameSize
		if f == last {
			length = (totalTries-1)%frameSize + 1
		}
		frames = append(frames, Frame{
			Index:  f,
			Start:  f * frameSize,
			Length: length,
		})
	}
	return frames
}
