package scoundrel

// Apply returns the state that results from playing a on s. It never
// mutates s and never fails: a finished game absorbs every action, and an
// action whose card is not in the room leaves the state unchanged. Legality
// is checked beforehand by Validate.
func Apply(s State, a Action) State {
	next := s.Clone()
	if next.GameOver {
		return next
	}

	switch a.Type {
	case DrawRoom:
		next.drawRoom()
	case AvoidRoom:
		next.avoidRoom()
	case FightMonster:
		if a.Monster != nil {
			next.fight(a.Monster.Face)
		}
	case UseWeapon:
		if a.Monster != nil {
			next.useWeapon(a.Monster.Face)
		}
	case UseHealthPotion:
		if a.Healing != nil {
			next.drink(*a.Healing)
		}
	case EquipWeapon:
		if a.Weapon != nil {
			next.equip(a.Weapon.Face)
		}
	}
	return next
}

// Settle resolves positions in which the player has no legal move left. A
// room of potions that cannot be drunk at full health, and that can neither
// be drawn past nor avoided, is discarded. An empty room over a dungeon too
// short for a full draw triggers the final draw, which either deals the
// last cards or ends the run.
func Settle(s State) State {
	next := s
	if stranded(next) {
		next = next.Clone()
		next.DiscardPile = append(next.DiscardPile, next.Room...)
		next.Room = Cards{}
		next.settle()
	}
	if NeedsForcedDraw(next) {
		next = Apply(next, Action{Type: DrawRoom})
	}
	return next
}

// NeedsForcedDraw reports whether the room is empty and the dungeon can no
// longer supply a full room.
func NeedsForcedDraw(s State) bool {
	return !s.GameOver && len(s.Room) == 0 && len(s.Dungeon) < RoomSize
}

func stranded(s State) bool {
	if s.GameOver || len(s.Room) == 0 || s.Health < s.MaxHealth {
		return false
	}
	for _, c := range s.Room {
		if _, ok := c.(HealthPotion); !ok {
			return false
		}
	}
	return Validate(s, Action{Type: DrawRoom}) != nil &&
		Validate(s, Action{Type: AvoidRoom}) != nil
}

func (s *State) drawRoom() {
	if len(s.Dungeon) < RoomSize-1 {
		s.GameOver = true
		if s.Health > 0 {
			s.Score = s.Health
		} else {
			s.Score = -s.MonsterValueInDungeon()
		}
		return
	}

	n := RoomSize
	if len(s.Room) == 1 {
		n = RoomSize - 1
	}
	n = min(n, len(s.Dungeon))

	s.Room = append(s.Room, s.Dungeon[:n]...)
	s.Dungeon = s.Dungeon[n:]
	s.OriginalRoomSize = RoomSize
	s.RemainingAvoids = 1
	s.CanAvoidRoom = !s.LastActionWasAvoid
	s.LastActionWasAvoid = false
}

func (s *State) avoidRoom() {
	if !s.CanAvoidRoom {
		return
	}
	s.Dungeon = append(s.Dungeon, s.Room...)
	s.Room = Cards{}
	s.CanAvoidRoom = false
	s.RemainingAvoids = 0
	s.LastActionWasAvoid = true
}

func (s *State) fight(f Face) {
	i, m, ok := s.monster(f)
	if !ok {
		return
	}
	s.Room = s.Room.without(i)
	s.DiscardPile = append(s.DiscardPile, m)
	s.Health -= m.Damage
	s.settle()
}

func (s *State) useWeapon(f Face) {
	w := s.EquippedWeapon
	if w == nil || w.Damage == 0 {
		return
	}
	i, m, ok := s.monster(f)
	if !ok {
		return
	}
	taken := max(0, m.Damage-w.Damage)
	w.Damage = m.Damage
	w.SlainMonsters = append(w.SlainMonsters, m)
	s.Room = s.Room.without(i)
	s.Health -= taken
	s.settle()
}

func (s *State) drink(healing int) {
	i, p, ok := s.potion(healing)
	if !ok {
		return
	}
	s.Room = s.Room.without(i)
	s.DiscardPile = append(s.DiscardPile, p)
	s.Health = min(s.MaxHealth, s.Health+p.Healing)
	s.settle()
}

func (s *State) equip(f Face) {
	i, w, ok := s.weapon(f)
	if !ok {
		return
	}
	s.Room = s.Room.without(i)
	if old := s.EquippedWeapon; old != nil {
		trophies := old.SlainMonsters
		old.SlainMonsters = []Monster{}
		s.DiscardPile = append(s.DiscardPile, *old)
		for _, m := range trophies {
			s.DiscardPile = append(s.DiscardPile, m)
		}
	}
	w.SlainMonsters = []Monster{}
	s.EquippedWeapon = &w
	s.settle()
}

// settle applies the bookkeeping shared by every card play: death ends the
// run, otherwise avoidance is re-armed only for an untouched room.
func (s *State) settle() {
	if s.Health <= 0 {
		s.Health = 0
		s.GameOver = true
		s.Score = -s.MonsterValueInDungeon()
		s.CanAvoidRoom = false
		return
	}
	s.CanAvoidRoom = len(s.Room) == s.OriginalRoomSize
	s.RemainingAvoids = 0
	s.LastActionWasAvoid = false
}
