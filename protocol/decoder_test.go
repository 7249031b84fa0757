package protocol

import "testing"

type frameRecord struct {
	frame Command
	valid bool
}

func newRecordingDecoder() (*Decoder, *[]frameRecord) {
	records := &[]frameRecord{}
	dec := NewDecoder(func(frame Command, valid bool) {
		*records = append(*records, frameRecord{frame: frame, valid: valid})
	})
	return dec, records
}

func feed(dec *Decoder, data ...byte) {
	for _, b := range data {
		dec.OnByte(b)
	}
}

func TestDecoderValidFrame(t *testing.T) {
	dec, records := newRecordingDecoder()

	feed(dec, 0xFF, 0x00, 0x0A, 0x14, 0x1E, 0x28, 0x64)

	if len(*records) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(*records))
	}
	rec := (*records)[0]
	if !rec.valid {
		t.Error("Expected frame to validate")
	}
	want := Command{Extended: 0x00, Chin: 0x0A, NeckRy: 0x14, NeckRx: 0x1E, NeckRz: 0x28}
	if rec.frame != want {
		t.Errorf("Decoded %+v, want %+v", rec.frame, want)
	}
	if dec.Octet() != OctetMarker {
		t.Errorf("Expected octet index 0 after a frame, got %d", dec.Octet())
	}
	if stats := dec.Stats(); stats.Frames != 1 || stats.Valid != 1 || stats.Rejected != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestDecoderBadChecksum(t *testing.T) {
	dec, records := newRecordingDecoder()

	feed(dec, 0xFF, 0x00, 0x0A, 0x14, 0x1E, 0x28, 0x65)

	if len(*records) != 1 || (*records)[0].valid {
		t.Fatalf("Expected one rejected frame, got %+v", *records)
	}
	stats := dec.Stats()
	if stats.Frames != 1 || stats.Valid != 0 || stats.Rejected != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestDecoderEscapedChecksum(t *testing.T) {
	dec, records := newRecordingDecoder()

	// Payload sums to 0xFF, sender substitutes 0xFE
	feed(dec, 0xFF, 0x00, 0x7F, 0x80, 0x00, 0x00, 0xFE)

	if len(*records) != 1 || !(*records)[0].valid {
		t.Fatalf("Expected escaped checksum to validate, got %+v", *records)
	}
}

func TestDecoderMarkerAsChecksumRestartsFrame(t *testing.T) {
	dec, records := newRecordingDecoder()

	feed(dec, 0xFF, 0x00, 0x7F, 0x80, 0x00, 0x00, 0xFF)

	if len(*records) != 0 {
		t.Fatalf("A 0xFF checksum byte must not complete a frame, got %+v", *records)
	}
	if dec.Octet() != OctetExtended {
		t.Errorf("Expected decoder to be waiting for octet 1, got %d", dec.Octet())
	}
	if dec.Stats().Resyncs != 1 {
		t.Errorf("Expected 1 resync, got %d", dec.Stats().Resyncs)
	}
}

func TestDecoderResyncMidFrame(t *testing.T) {
	dec, records := newRecordingDecoder()

	// Two payload bytes, then a marker at octet index 3
	feed(dec, 0xFF, 0x02, 0x33)
	if dec.Octet() != OctetNeckRy {
		t.Fatalf("Expected octet index 3, got %d", dec.Octet())
	}
	feed(dec, 0xFF, 0x00, 0x0A, 0x14, 0x1E, 0x28, 0x64)

	if len(*records) != 1 {
		t.Fatalf("Expected exactly the fresh frame, got %d frames", len(*records))
	}
	rec := (*records)[0]
	want := Command{Extended: 0x00, Chin: 0x0A, NeckRy: 0x14, NeckRx: 0x1E, NeckRz: 0x28}
	if !rec.valid || rec.frame != want {
		t.Errorf("Got %+v (valid=%v), want %+v", rec.frame, rec.valid, want)
	}
	if dec.Stats().Resyncs != 1 {
		t.Errorf("Expected 1 resync, got %d", dec.Stats().Resyncs)
	}
}

func TestDecoderFrameWithoutLeadingMarker(t *testing.T) {
	dec, records := newRecordingDecoder()

	// Any byte at octet 0 opens a frame
	feed(dec, 0x00, 0x00, 0x0A, 0x14, 0x1E, 0x28, 0x64)

	if len(*records) != 1 || !(*records)[0].valid {
		t.Fatalf("Expected one valid frame, got %+v", *records)
	}
}

func TestDecoderBackToBackFrames(t *testing.T) {
	dec, records := newRecordingDecoder()

	var stream []byte
	for i := 0; i < 10; i++ {
		frame, err := EncodeFrame(Command{Chin: uint8(i * 20), NeckRx: uint8(200 - i)})
		if err != nil {
			t.Fatalf("EncodeFrame failed: %v", err)
		}
		stream = append(stream, frame[:]...)
	}
	n, err := dec.Write(stream)
	if err != nil || n != len(stream) {
		t.Fatalf("Write returned (%d, %v)", n, err)
	}

	if len(*records) != 10 {
		t.Fatalf("Expected 10 frames, got %d", len(*records))
	}
	for i, rec := range *records {
		if !rec.valid {
			t.Errorf("Frame %d failed validation", i)
		}
		if rec.frame.Chin != uint8(i*20) {
			t.Errorf("Frame %d: Chin = %d, want %d", i, rec.frame.Chin, i*20)
		}
	}
}

func TestDecoderReset(t *testing.T) {
	dec, records := newRecordingDecoder()

	feed(dec, 0xFF, 0x01, 0x02)
	dec.Reset()
	feed(dec, 0xFF, 0x00, 0x0A, 0x14, 0x1E, 0x28, 0x64)

	if len(*records) != 1 || !(*records)[0].valid {
		t.Fatalf("Expected one valid frame after reset, got %+v", *records)
	}
	if dec.Stats().Resyncs != 0 {
		t.Errorf("Reset should not count as a resync, got %d", dec.Stats().Resyncs)
	}
}
