package services

import (
	"crypto/rand"
)

const (
	roomCodePrefix = "POTATO-"
	roomCodeLength = 4

	// Uppercase letters and digits minus easily-confused glyphs (I, O, 0, 1).
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateRoomCode returns a shareable code like "POTATO-A7K2".
func GenerateRoomCode() string {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}

	// 32 characters divide 256 evenly, so a plain modulo is unbiased.
	out := make([]byte, 0, len(roomCodePrefix)+roomCodeLength)
	out = append(out, roomCodePrefix...)
	for _, b := range buf {
		out = append(out, roomCodeAlphabet[int(b)%len(roomCodeAlphabet)])
	}
	return string(out)
}
