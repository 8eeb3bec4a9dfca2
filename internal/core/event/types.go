package event

// EffectActivated is raised for every successful handler result.
type EffectActivated struct {
	BattleID    int64
	CharacterID int64
	Trigger     string
	Key         string
	Message     string
}

// EffectFailed is raised for every handler that failed during dispatch.
// Notice is the player-facing text.
type EffectFailed struct {
	BattleID int64
	Trigger  string
	Key      string
	Reason   string
	Notice   string
}

// TriggerResolved is raised once per committed trigger.
type TriggerResolved struct {
	BattleID int64
	Trigger  string
	Results  int
	Failures int
	Intents  int
}

type BattleEnded struct {
	BattleID int64
}
