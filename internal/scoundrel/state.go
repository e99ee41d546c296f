package scoundrel

const (
	StartingHealth = 20
	RoomSize       = 4
)

// State is the complete authoritative snapshot of one run.
type State struct {
	Health              int     `json:"health"`
	MaxHealth           int     `json:"maxHealth"`
	Dungeon             Cards   `json:"dungeon"`
	Room                Cards   `json:"room"`
	DiscardPile         Cards   `json:"discardPile"`
	EquippedWeapon      *Weapon `json:"equippedWeapon,omitempty"`
	CanAvoidRoom        bool    `json:"canAvoidRoom"`
	GameOver            bool    `json:"gameOver"`
	Score               int     `json:"score"`
	OriginalRoomSize    int     `json:"originalRoomSize"`
	RemainingAvoids     int     `json:"remainingAvoids"`
	LastActionWasAvoid  bool    `json:"lastActionWasAvoid"`
	// LastActionTimestamp is the server time, in Unix milliseconds, at which
	// the last action was accepted.
	LastActionTimestamp int64   `json:"lastActionTimestamp"`
	LastActionSequence  int64   `json:"lastActionSequence"`
	StateChecksum       string  `json:"stateChecksum,omitempty"`
}

// NewState returns the starting state for a run over dungeon.
func NewState(dungeon Cards) State {
	return State{
		Health:          StartingHealth,
		MaxHealth:       StartingHealth,
		Dungeon:         dungeon,
		Room:            Cards{},
		DiscardPile:     Cards{},
		CanAvoidRoom:    true,
		RemainingAvoids: 1,
	}
}

// Clone returns a deep copy that shares no slices with s.
func (s State) Clone() State {
	s.Dungeon = s.Dungeon.Clone()
	s.Room = s.Room.Clone()
	s.DiscardPile = s.DiscardPile.Clone()
	if s.EquippedWeapon != nil {
		w := s.EquippedWeapon.clone()
		s.EquippedWeapon = &w
	}
	return s
}

// MonsterValueInDungeon sums the rank values of the monsters still face down.
func (s State) MonsterValueInDungeon() int {
	total := 0
	for _, c := range s.Dungeon {
		if m, ok := c.(Monster); ok {
			total += m.Rank.Value()
		}
	}
	return total
}

// CardCount returns how many physical cards the state holds across every
// container, trophies included.
func (s State) CardCount() int {
	n := len(s.Dungeon) + len(s.Room) + len(s.DiscardPile)
	if s.EquippedWeapon != nil {
		n += 1 + len(s.EquippedWeapon.SlainMonsters)
	}
	return n
}

// Faces lists the face of every card the state holds, trophies included.
func (s State) Faces() []Face {
	faces := make([]Face, 0, s.CardCount())
	for _, pile := range []Cards{s.Dungeon, s.Room, s.DiscardPile} {
		for _, c := range pile {
			faces = append(faces, c.face())
		}
	}
	if w := s.EquippedWeapon; w != nil {
		faces = append(faces, w.Face)
		for _, m := range w.SlainMonsters {
			faces = append(faces, m.Face)
		}
	}
	return faces
}

func (s State) monster(f Face) (int, Monster, bool) {
	i := s.Room.Index(f)
	if i < 0 {
		return -1, Monster{}, false
	}
	m, ok := s.Room[i].(Monster)
	return i, m, ok
}

func (s State) weapon(f Face) (int, Weapon, bool) {
	i := s.Room.Index(f)
	if i < 0 {
		return -1, Weapon{}, false
	}
	w, ok := s.Room[i].(Weapon)
	return i, w, ok
}

func (s State) potion(healing int) (int, HealthPotion, bool) {
	for i, c := range s.Room {
		if p, ok := c.(HealthPotion); ok && p.Healing == healing {
			return i, p, true
		}
	}
	return -1, HealthPotion{}, false
}
