package main

import (
	"math/rand/v2"
)

const (
	dataLength  = 10
	dataLetters = "abcdefghijklmnopqrstuvwxyz"
)

// GenerateData returns a random string of lowercase letters, dataLength long
func GenerateData() string {
	buf := make([]byte, dataLength)
	for i := range buf {
		buf[i] = dataLetters[rand.IntN(len(dataLetters))]
	}

	return string(buf)
}
