package scoundrel

import (
	"fmt"

	"github.com/samber/oops"
)

// CodeIllegalAction marks an action rejected by the game rules.
const CodeIllegalAction = "ILLEGAL_ACTION"

func illegal(a Action, reason string) error {
	return oops.Code(CodeIllegalAction).
		With("action", string(a.Type)).
		With("reason", reason).
		Errorf("%s", reason)
}

// Validate reports whether a may be played on s. It returns nil for a legal
// action and an ILLEGAL_ACTION error carrying the violated rule otherwise.
func Validate(s State, a Action) error {
	if s.GameOver {
		return illegal(a, "Game is already over")
	}

	switch a.Type {
	case DrawRoom:
		if len(s.Room) > 1 {
			return illegal(a, "Cannot draw room when current room has more than one card")
		}
		need := RoomSize
		if len(s.Room) == 1 {
			need = RoomSize - 1
		}
		if len(s.Dungeon) < need {
			return illegal(a, "Not enough cards in dungeon to draw a room")
		}

	case AvoidRoom:
		if !s.CanAvoidRoom {
			return illegal(a, "Cannot avoid room at this time")
		}
		if s.LastActionWasAvoid {
			return illegal(a, "Cannot avoid room twice in a row")
		}
		if len(s.Room) == 0 {
			return illegal(a, "No room to avoid")
		}

	case FightMonster:
		if a.Monster == nil {
			return illegal(a, required("Monster", a.Type))
		}
		if _, _, ok := s.monster(a.Monster.Face); !ok {
			return illegal(a, "Monster not found in current room")
		}

	case UseWeapon:
		if a.Monster == nil {
			return illegal(a, required("Monster", a.Type))
		}
		_, m, ok := s.monster(a.Monster.Face)
		if !ok {
			return illegal(a, "Monster not found in current room")
		}
		if s.EquippedWeapon == nil {
			return illegal(a, "No weapon equipped")
		}
		if s.EquippedWeapon.Damage < m.Damage {
			return illegal(a, "Weapon is too weak for this monster")
		}

	case UseHealthPotion:
		if a.Healing == nil {
			return illegal(a, required("Healing amount", a.Type))
		}
		if _, _, ok := s.potion(*a.Healing); !ok {
			return illegal(a, "Health potion not found in current room")
		}
		if s.Health >= s.MaxHealth {
			return illegal(a, "Health is already full")
		}

	case EquipWeapon:
		if a.Weapon == nil {
			return illegal(a, required("Weapon", a.Type))
		}
		if _, _, ok := s.weapon(a.Weapon.Face); !ok {
			return illegal(a, "Weapon not found in current room")
		}

	default:
		return illegal(a, "Invalid action type")
	}
	return nil
}

func required(field string, t ActionType) string {
	return fmt.Sprintf("%s is required for %s action", field, t)
}
