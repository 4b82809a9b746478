package session

import (
	"testing"
	"time"
)

// FuzzSessionDecode exercises the binary session decoder with arbitrary inputs.
func FuzzSessionDecode(f *testing.F) {
	encoded, err := Encode(Session{ID: "sid-fuzz", UserID: "user1", CreatedAt: time.Unix(1700000000, 0)})
	if err == nil {
		f.Add(encoded)
		f.Add(encoded[:10])
		f.Add(append(append([]byte{}, encoded...), 0))
	}

	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add([]byte{1})
	f.Add([]byte{1, 255})
	f.Add([]byte{255, 255, 255})

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}
		if s.ID == "" || s.UserID == "" {
			t.Fatalf("decoded session missing identity: %+v", s)
		}
		again, err := Encode(s)
		if err != nil {
			t.Fatalf("re-encode failed: %v", err)
		}
		if string(again) != string(data) {
			t.Fatalf("decode/encode not stable")
		}
	})
}
