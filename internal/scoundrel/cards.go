// Package scoundrel defines the card model, the game state machine and the
// action validator. It performs no I/O; everything here is pure Go.
package scoundrel

import (
	"encoding/json"
	"fmt"
)

type Suit string

const (
	Spades   Suit = "♠"
	Clubs    Suit = "♣"
	Diamonds Suit = "♦"
	Hearts   Suit = "♥"
)

type Rank string

const (
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// Ranks lists every rank in ascending order of value.
var Ranks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// Value maps a rank to its numeric strength: 2..10 at face value, J=11,
// Q=12, K=13, A=14. Unknown ranks are worth 0.
func (r Rank) Value() int {
	switch r {
	case Jack:
		return 11
	case Queen:
		return 12
	case King:
		return 13
	case Ace:
		return 14
	}
	for i, rr := range Ranks[:9] {
		if rr == r {
			return i + 2
		}
	}
	return 0
}

// Face identifies a physical card. No two cards of a deck share a Face.
type Face struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (f Face) face() Face { return f }

func (f Face) String() string { return string(f.Rank) + string(f.Suit) }

// Card is one of Monster, Weapon or HealthPotion. The set is closed: code
// consuming a Card switches over the three variants and panics on anything
// else.
type Card interface {
	face() Face
	isCard()
}

type CardType string

const (
	TypeMonster      CardType = "MONSTER"
	TypeWeapon       CardType = "WEAPON"
	TypeHealthPotion CardType = "HEALTH_POTION"
)

type Monster struct {
	Face
	Damage int `json:"damage"`
}

type Weapon struct {
	Face
	Damage        int       `json:"damage"`
	SlainMonsters []Monster `json:"monstersSlain"`
}

type HealthPotion struct {
	Face
	Healing int `json:"healing"`
}

func (Monster) isCard()      {}
func (Weapon) isCard()       {}
func (HealthPotion) isCard() {}

// FaceOf returns the suit and rank of c.
func FaceOf(c Card) Face { return c.face() }

// TypeOf returns the wire tag of c.
func TypeOf(c Card) CardType {
	switch c.(type) {
	case Monster:
		return TypeMonster
	case Weapon:
		return TypeWeapon
	case HealthPotion:
		return TypeHealthPotion
	default:
		panic(fmt.Sprintf("scoundrel: unknown card variant %T", c))
	}
}

func (m Monster) MarshalJSON() ([]byte, error) {
	type alias Monster
	return json.Marshal(struct {
		Type CardType `json:"type"`
		alias
	}{TypeMonster, alias(m)})
}

func (w Weapon) MarshalJSON() ([]byte, error) {
	type alias Weapon
	if w.SlainMonsters == nil {
		w.SlainMonsters = []Monster{}
	}
	return json.Marshal(struct {
		Type CardType `json:"type"`
		alias
	}{TypeWeapon, alias(w)})
}

func (p HealthPotion) MarshalJSON() ([]byte, error) {
	type alias HealthPotion
	return json.Marshal(struct {
		Type CardType `json:"type"`
		alias
	}{TypeHealthPotion, alias(p)})
}

// DecodeCard decodes a single tagged card.
func DecodeCard(data []byte) (Card, error) {
	var probe struct {
		Type CardType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding card type: %w", err)
	}

	switch probe.Type {
	case TypeMonster:
		var m Monster
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decoding monster: %w", err)
		}
		return m, nil
	case TypeWeapon:
		var w Weapon
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding weapon: %w", err)
		}
		if w.SlainMonsters == nil {
			w.SlainMonsters = []Monster{}
		}
		return w, nil
	case TypeHealthPotion:
		var p HealthPotion
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding health potion: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown card type %q", probe.Type)
	}
}

// Cards is an ordered pile of cards. It always encodes as a JSON array.
type Cards []Card

func (cs Cards) MarshalJSON() ([]byte, error) {
	if cs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Card(cs))
}

func (cs *Cards) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Cards, 0, len(raws))
	for i, raw := range raws {
		c, err := DecodeCard(raw)
		if err != nil {
			return fmt.Errorf("card %d: %w", i, err)
		}
		out = append(out, c)
	}
	*cs = out
	return nil
}

// Index returns the position of the card with face f, or -1.
func (cs Cards) Index(f Face) int {
	for i, c := range cs {
		if c.face() == f {
			return i
		}
	}
	return -1
}

// Clone deep-copies the pile, including weapon trophy lists.
func (cs Cards) Clone() Cards {
	if cs == nil {
		return nil
	}
	out := make(Cards, len(cs))
	for i, c := range cs {
		out[i] = cloneCard(c)
	}
	return out
}

func (cs Cards) without(i int) Cards {
	out := make(Cards, 0, len(cs)-1)
	out = append(out, cs[:i]...)
	return append(out, cs[i+1:]...)
}

func cloneCard(c Card) Card {
	switch c := c.(type) {
	case Monster, HealthPotion:
		return c
	case Weapon:
		return c.clone()
	default:
		panic(fmt.Sprintf("scoundrel: unknown card variant %T", c))
	}
}

func (w Weapon) clone() Weapon {
	if w.SlainMonsters == nil {
		return w
	}
	trophies := make([]Monster, len(w.SlainMonsters))
	copy(trophies, w.SlainMonsters)
	w.SlainMonsters = trophies
	return w
}
