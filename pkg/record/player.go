package record

// Player is a single player document as loaded from the store.
// Records are never mutated after loading.
type Player map[string]any

// Field names carried by the player dataset
const (
	PlayerID                  = "PlayerID"
	Age                       = "Age"
	Gender                    = "Gender"
	Location                  = "Location"
	GameGenre                 = "GameGenre"
	GameDifficulty            = "GameDifficulty"
	PlayTimeHours             = "PlayTimeHours"
	SessionsPerWeek           = "SessionsPerWeek"
	AvgSessionDurationMinutes = "AvgSessionDurationMinutes"
	PlayerLevel               = "PlayerLevel"
	AchievementsUnlocked      = "AchievementsUnlocked"
	InGamePurchases           = "InGamePurchases"
	EngagementLevel           = "EngagementLevel"
	LoyaltyIndex              = "LoyaltyIndex"
	SocialInteractionScore    = "SocialInteractionScore"
	TeamPlayerScore           = "TeamPlayerScore"
	ToxicityLevel             = "ToxicityLevel"
	RageQuitFrequency         = "RageQuitFrequency"
	SleepDeprivationRisk      = "SleepDeprivationRisk"
	PlayerType                = "PlayerType"
)

// Has reports whether the field key exists, even if its value is nil
func (p Player) Has(field string) bool {
	_, ok := p[field]
	return ok
}

// Get returns the raw value of a field
func (p Player) Get(field string) (any, bool) {
	v, ok := p[field]
	return v, ok
}
