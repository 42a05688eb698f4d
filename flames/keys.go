/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package flames

import (
	"fmt"
)

const (
	fallbackEmoji = "💞"
)

// Reading is a Result dressed up for display.
type Reading struct {
	Result
	Emoji  string `json:"emoji"`
	Advice string `json:"advice"`
}

// Describe attaches the emoji and advice for r.Key.
func Describe(r Result) Reading {
	return Reading{
		Result: r,
		Emoji:  r.Key.Emoji(),
		Advice: r.Key.Advice(),
	}
}

func (k Key) Valid() bool {
	switch k {
	case Friend, Love, Admire, Marriage, Enemy, SecretLover:
		return true
	}
	return false
}

func (k Key) Meaning() string {
	switch k {
	case Friend:
		return "Friend"
	case Love:
		return "Love"
	case Admire:
		return "Admire"
	case Marriage:
		return "Marriage"
	case Enemy:
		return "Enemy"
	case SecretLover:
		return "Secret Lover"
	}
	return ""
}

func (k Key) Emoji() string {
	switch k {
	case Friend:
		return "😊"
	case Love:
		return "❤️"
	case Admire:
		return "😍"
	case Marriage:
		return "💍"
	case Enemy:
		return "😤"
	case SecretLover:
		return "😉"
	}
	return fallbackEmoji
}

func (k Key) Advice() string {
	switch k {
	case Friend:
		return "Be a great friend first — friendships can grow into something more."
	case Love:
		return "Love is glowing — small, consistent gestures will help it grow."
	case Admire:
		return "Admiration is sweet — a genuine compliment might spark something."
	case Marriage:
		return "Long-term vibes — think meaningful promises, not haste."
	case Enemy:
		return "There might be friction — approach gently and seek understanding."
	case SecretLover:
		return "Secret lover — feelings are private. Consider being brave but respectful."
	}
	return ""
}

func (k Key) String() string {
	return string(rune(k))
}

func (k Key) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid flames key %q", rune(k))
	}
	return []byte{byte(k)}, nil
}

func (k *Key) UnmarshalText(text []byte) error {
	if len(text) != 1 || !Key(text[0]).Valid() {
		return fmt.Errorf("invalid flames key %q", text)
	}
	*k = Key(text[0])
	return nil
}
