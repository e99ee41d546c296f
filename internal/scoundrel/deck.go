package scoundrel

import (
	crand "crypto/rand"
	"math/rand/v2"
)

// DeckSize is the number of cards in a fresh dungeon.
const DeckSize = 44

// RNG is the randomness source used to shuffle a deck. *rand.Rand
// satisfies it.
type RNG interface {
	IntN(n int) int
}

// NewRNG returns a ChaCha8 generator seeded from the operating system.
func NewRNG() RNG {
	var seed [32]byte
	crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// NewSeededRNG returns a deterministic generator for tests and replays.
func NewSeededRNG(seed uint64) RNG {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewDeck builds the 44-card dungeon and shuffles it with rng: spades and
// clubs are monsters of every rank, diamonds are weapons 2..10 and hearts
// are health potions 2..10.
func NewDeck(rng RNG) Cards {
	deck := make(Cards, 0, DeckSize)
	for _, suit := range []Suit{Spades, Clubs} {
		for _, r := range Ranks {
			deck = append(deck, Monster{Face: Face{suit, r}, Damage: r.Value()})
		}
	}
	for _, r := range Ranks[:9] {
		deck = append(deck, Weapon{Face: Face{Diamonds, r}, Damage: r.Value(), SlainMonsters: []Monster{}})
	}
	for _, r := range Ranks[:9] {
		deck = append(deck, HealthPotion{Face: Face{Hearts, r}, Healing: r.Value()})
	}
	Shuffle(deck, rng)
	return deck
}

// Shuffle permutes cs in place (Fisher-Yates).
func Shuffle(cs Cards, rng RNG) {
	for i := len(cs) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cs[i], cs[j] = cs[j], cs[i]
	}
}
