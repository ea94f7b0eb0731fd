package splitplan

// Segment is one contiguous time-slice of the source track together with its
// timing adjustment. Segments are contiguous and non-overlapping by
// construction: segment 0 starts at 0, each subsequent one starts where the
// previous ended, and the last runs to the end of the stream.
type Segment struct {
	Index    int
	Start    float64
	Duration float64
	// ToEnd marks the final segment, which has no explicit duration.
	ToEnd   bool
	DelayMS int
}

// Segments derives the n+1 segment descriptors implied by a plan with n
// split points.
func (p *Plan) Segments() []Segment {
	segments := make([]Segment, 0, len(p.Points)+1)
	prev := 0.0
	for i, point := range p.Points {
		segments = append(segments, Segment{
			Index:    i,
			Start:    prev,
			Duration: point.Time - prev,
			DelayMS:  p.Delays[i],
		})
		prev = point.Time
	}
	segments = append(segments, Segment{
		Index:   len(p.Points),
		Start:   prev,
		ToEnd:   true,
		DelayMS: p.Delays[len(p.Points)],
	})
	return segments
}
