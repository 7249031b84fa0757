package protocol

import "testing"

func TestDefaultCommand(t *testing.T) {
	c := DefaultCommand()
	if c.Extended != 0 || c.Chin != 0 || c.NeckRy != 0 {
		t.Errorf("Unexpected default command: %+v", c)
	}
	if c.NeckRx != 0x80 || c.NeckRz != 0x80 {
		t.Errorf("Expected neck centres at 0x80, got rx=0x%02X rz=0x%02X", c.NeckRx, c.NeckRz)
	}
}

func TestEncoderLock(t *testing.T) {
	testCases := []struct {
		extended uint8
		locked   bool
	}{
		{0x00, false},
		{0x01, false},
		{0x02, true},
		{0x03, true},
		{0xFD, false},
		{0xFE, true},
	}

	for _, tc := range testCases {
		c := Command{Extended: tc.extended}
		if got := c.EncoderLock(); got != tc.locked {
			t.Errorf("Command{Extended: 0x%02X}.EncoderLock() = %v, want %v", tc.extended, got, tc.locked)
		}
	}
}

func TestPackUnpack(t *testing.T) {
	c := Command{Extended: 0x02, Chin: 0x11, NeckRy: 0x22, NeckRx: 0x33, NeckRz: 0xFE}
	if got := UnpackCommand(c.Pack()); got != c {
		t.Errorf("UnpackCommand(Pack()) = %+v, want %+v", got, c)
	}
}

func TestWithMotionKeepsExtended(t *testing.T) {
	base := Command{Extended: 0x02, Chin: 1, NeckRy: 2, NeckRx: 3, NeckRz: 4}
	src := Command{Extended: 0x00, Chin: 9, NeckRy: 8, NeckRx: 7, NeckRz: 6}

	got := base.WithMotion(src)
	want := Command{Extended: 0x02, Chin: 9, NeckRy: 8, NeckRx: 7, NeckRz: 6}
	if got != want {
		t.Errorf("WithMotion = %+v, want %+v", got, want)
	}
}
