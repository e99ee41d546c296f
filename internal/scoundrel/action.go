package scoundrel

type ActionType string

const (
	DrawRoom        ActionType = "DRAW_ROOM"
	AvoidRoom       ActionType = "AVOID_ROOM"
	FightMonster    ActionType = "FIGHT_MONSTER"
	UseWeapon       ActionType = "USE_WEAPON"
	UseHealthPotion ActionType = "USE_HEALTH_POTION"
	EquipWeapon     ActionType = "EQUIP_WEAPON"
)

// Action is a single player move. Timestamp is in Unix milliseconds and
// Sequence must follow the state's LastActionSequence by exactly one.
type Action struct {
	Type      ActionType `json:"type"`
	Monster   *Monster   `json:"monster,omitempty"`
	Weapon    *Weapon    `json:"weapon,omitempty"`
	Healing   *int       `json:"healing,omitempty"`
	Timestamp int64      `json:"timestamp"`
	Sequence  int64      `json:"sequence"`
}
