package checksum

import "testing"

func TestSum32KnownVector(t *testing.T) {
	// FNV-1a 32-bit hash of the empty string is the offset basis.
	if got := Sum32(nil); got != offsetBasis {
		t.Errorf("Sum32(nil) = %#x, want %#x", got, offsetBasis)
	}
}

func TestPutCheckAtEndRoundTrip(t *testing.T) {
	frame := make([]byte, 10)
	copy(frame, []byte{1, 2, 3, 4, 5, 6})
	if err := PutAtEnd(frame); err != nil {
		t.Fatalf("PutAtEnd: %v", err)
	}
	ok, err := CheckAtEnd(frame)
	if err != nil {
		t.Fatalf("CheckAtEnd: %v", err)
	}
	if !ok {
		t.Fatal("CheckAtEnd: want true")
	}
}

func TestCheckAtEndDetectsCorruption(t *testing.T) {
	frame := make([]byte, 10)
	copy(frame, []byte{1, 2, 3, 4, 5, 6})
	if err := PutAtEnd(frame); err != nil {
		t.Fatalf("PutAtEnd: %v", err)
	}
	frame[0] ^= 0xFF
	ok, err := CheckAtEnd(frame)
	if err != nil {
		t.Fatalf("CheckAtEnd: %v", err)
	}
	if ok {
		t.Fatal("CheckAtEnd: want false after corruption")
	}
}

func TestTooShort(t *testing.T) {
	if err := PutAtEnd([]byte{1, 2, 3}); err != ErrTooShort {
		t.Errorf("PutAtEnd short frame: got %v, want ErrTooShort", err)
	}
	if _, err := CheckAtEnd([]byte{1, 2, 3}); err != ErrTooShort {
		t.Errorf("CheckAtEnd short frame: got %v, want ErrTooShort", err)
	}
}

func TestLittleEndianByteIndex(t *testing.T) {
	frame := make([]byte, 4)
	if err := PutAtEnd(frame); err != nil {
		t.Fatalf("PutAtEnd: %v", err)
	}
	sum := Sum32(nil)
	want := []byte{byte(sum), byte(sum >> 8), byte(sum >> 16), byte(sum >> 24)}
	for i := range want {
		if frame[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, frame[i], want[i])
		}
	}
}
