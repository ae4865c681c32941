package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const sessionFormatVersionCurrent = 1

const (
	flagAuthenticated = 1 << 0
	flagGuest         = 1 << 1
)

func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionCurrent)

	// User agents routinely exceed 255 bytes, so every string field carries a
	// uint16 length prefix.
	for _, field := range []string{s.UserID, s.Email, s.Username, s.Role, s.Fingerprint.IP, s.Fingerprint.UserAgent} {
		if err := writeString(&buf, field); err != nil {
			return nil, err
		}
	}

	var flags byte
	if s.Authenticated {
		flags |= flagAuthenticated
	}
	if s.IsGuest {
		flags |= flagGuest
	}
	buf.WriteByte(flags)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersionCurrent {
		return nil, errors.New("invalid session version")
	}

	s := &Session{}

	fields := []*string{&s.UserID, &s.Email, &s.Username, &s.Role, &s.Fingerprint.IP, &s.Fingerprint.UserAgent}
	for _, field := range fields {
		v, err := readString(reader)
		if err != nil {
			return nil, err
		}
		*field = v
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	s.Authenticated = flags&flagAuthenticated != 0
	s.IsGuest = flags&flagGuest != 0

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}

	return s, nil
}

func writeString(buf *bytes.Buffer, v string) error {
	if len(v) > math.MaxUint16 {
		return errors.New("session field too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(v))); err != nil {
		return err
	}
	buf.WriteString(v)
	return nil
}

func readString(reader *bytes.Reader) (string, error) {
	var length uint16
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return "", err
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
