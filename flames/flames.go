/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package flames computes the FLAMES compatibility result for a pair of names.
//
// The letters shared by both names are crossed out one-to-one, and the number
// of letters left over is used to count around the word FLAMES, striking out
// the letter landed on each round until a single letter survives.
package flames

import (
	"unicode"
)

// Key is one of the six letters of FLAMES.
type Key byte

const (
	Friend      Key = 'F'
	Love        Key = 'L'
	Admire      Key = 'A'
	Marriage    Key = 'M'
	Enemy       Key = 'E'
	SecretLover Key = 'S'
)

var sequence = [...]Key{Friend, Love, Admire, Marriage, Enemy, SecretLover}

// Keys returns the six keys in FLAMES order.
func Keys() []Key {
	keys := sequence
	return keys[:]
}

// Result is the outcome of a single computation.
type Result struct {
	Key     Key    `json:"key"`
	Meaning string `json:"meaning"`
	Count   int    `json:"count"`
}

// Letters returns the letters of name, lowercased, in their original order.
// Everything that is not a letter is dropped.
func Letters(name string) []rune {
	letters := make([]rune, 0, len(name))
	for _, r := range name {
		if unicode.IsLetter(r) {
			letters = append(letters, unicode.ToLower(r))
		}
	}
	return letters
}

// Remaining returns how many letters of both names survive cancellation.
//
// Each letter occurring a times in one name and b times in the other cancels
// min(a, b) times on each side, leaving |a-b| behind.
func Remaining(name1, name2 string) int {
	counts := make(map[rune]int)
	for _, r := range Letters(name1) {
		counts[r]++
	}
	for _, r := range Letters(name2) {
		counts[r]--
	}

	remaining := 0
	for _, n := range counts {
		if n < 0 {
			n = -n
		}
		remaining += n
	}
	return remaining
}

// Eliminate counts count places around the remaining keys, starting at F,
// and strikes the key landed on, resuming the count from the key that
// followed it. It returns the surviving key along with the keys in the order
// they were struck.
//
// A count below one strikes nothing and yields SecretLover.
func Eliminate(count int) (Key, []Key) {
	if count < 1 {
		return SecretLover, nil
	}

	keys := Keys()
	struck := make([]Key, 0, len(keys)-1)
	current := 0
	for len(keys) > 1 {
		remove := (current + count - 1) % len(keys)
		struck = append(struck, keys[remove])
		keys = append(keys[:remove], keys[remove+1:]...)
		current = remove % len(keys)
	}

	return keys[0], struck
}

// Compute returns the FLAMES result for two names. It is deterministic and
// safe for concurrent use.
func Compute(name1, name2 string) Result {
	count := Remaining(name1, name2)

	// Names that cancel out completely have nothing to count with.
	if count == 0 {
		return Result{Key: SecretLover, Meaning: SecretLover.Meaning(), Count: 0}
	}

	key, _ := Eliminate(count)

	return Result{Key: key, Meaning: key.Meaning(), Count: count}
}
