package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const sessionFormatVersionCurrent = 1

// Encode renders s in the compact binary layout shared by the Redis and bbolt
// backends:
//
//	version(1) | len(id)(1) | id | len(user)(1) | user | created_at unix nanos (8, big endian)
func Encode(s Session) ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if len(s.ID) > 255 {
		return nil, errors.New("session id too long")
	}
	if len(s.UserID) > 255 {
		return nil, errors.New("userID too long")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 1 + len(s.ID) + 1 + len(s.UserID) + 8)

	buf.WriteByte(sessionFormatVersionCurrent)
	buf.WriteByte(byte(len(s.ID)))
	buf.WriteString(s.ID)
	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt.UnixNano()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a record produced by Encode. Malformed input yields
// ErrCorruptRecord.
func Decode(data []byte) (Session, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return Session{}, ErrCorruptRecord
	}
	if version != sessionFormatVersionCurrent {
		return Session{}, ErrCorruptRecord
	}

	id, err := readShortString(r)
	if err != nil {
		return Session{}, ErrCorruptRecord
	}
	userID, err := readShortString(r)
	if err != nil {
		return Session{}, ErrCorruptRecord
	}

	var created int64
	if err := binary.Read(r, binary.BigEndian, &created); err != nil {
		return Session{}, ErrCorruptRecord
	}
	if r.Len() != 0 {
		return Session{}, ErrCorruptRecord
	}

	s := Session{ID: id, UserID: userID, CreatedAt: time.Unix(0, created)}
	if err := s.validate(); err != nil {
		return Session{}, ErrCorruptRecord
	}
	return s, nil
}

func readShortString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
