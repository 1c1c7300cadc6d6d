package protocol

// Encode converts a property record into its 50-byte sysex frame.
//
// Frame structure:
//
//	[0xF0][W0 n7..n0][W1 n7..n0]...[W5 n7..n0][0xF7]
//
// Each word is emitted as eight bytes carrying one nibble each, most
// significant nibble first, so no payload byte can collide with a marker.
func Encode(p Property) []byte {
	frame := make([]byte, 0, FrameSize)
	frame = append(frame, SysexStart)

	for _, w := range p {
		for shift := 4 * (NibblesPerWord - 1); shift >= 0; shift -= 4 {
			frame = append(frame, byte(w>>uint(shift))&NibbleMask)
		}
	}

	frame = append(frame, SysexEnd)
	return frame
}

// Decode converts a sysex frame back into a property record.
//
// Malformed frames (too short, or missing either marker) decode to the zero
// record rather than an error. The zero record never matches an expected
// acknowledgement, so callers simply keep waiting. Bytes past the end marker
// position are ignored.
func Decode(frame []byte) Property {
	var p Property
	if Validate(frame) != nil {
		return p
	}

	data := frame[1 : FrameSize-1]
	for i := range p {
		var w uint32
		for _, b := range data[i*NibblesPerWord : (i+1)*NibblesPerWord] {
			w = w<<4 | uint32(b&NibbleMask)
		}
		p[i] = w
	}
	return p
}

// Validate reports why a frame would decode to the zero record, or nil if
// it is well formed.
func Validate(frame []byte) error {
	if len(frame) < FrameSize {
		return &FrameError{Reason: ReasonShort, Length: len(frame)}
	}
	if frame[0] != SysexStart {
		return &FrameError{Reason: ReasonStartMarker, Length: len(frame), Got: frame[0]}
	}
	if frame[FrameSize-1] != SysexEnd {
		return &FrameError{Reason: ReasonEndMarker, Length: len(frame), Got: frame[FrameSize-1]}
	}
	return nil
}
