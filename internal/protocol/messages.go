package protocol

// HELLO (policy client -> server). Species selects which species the client
// drives, by name.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	Species         string `json:"species"`
}

// WELCOME (server -> policy client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	SpeciesID       int         `json:"species_id"`
	SpeciesName     string      `json:"species_name"`
	WorldParams     WorldParams `json:"world_params"`
	Rules           RulesParams `json:"rules"`
}

type WorldParams struct {
	WorldID         string `json:"world_id"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	TickRateHz      int    `json:"tick_rate_hz"`
	MoonLen         int    `json:"moon_len"`
	ViewRadius      int    `json:"view_radius"`
	FeatureLen      int    `json:"feature_len"`
	EncodingVersion int    `json:"encoding_version"`
	Seed            int64  `json:"seed"`
}

type RulesParams struct {
	AttackGain   int     `json:"attack_gain"`
	AttackDamage int     `json:"attack_damage"`
	WallCost     int     `json:"wall_cost"`
	MoonDecay    int     `json:"moon_decay"`
	RewardBase   float64 `json:"reward_base"`
	RewardScale  float64 `json:"reward_scale"`
}

// ActionRef is the wire form of an action. DX/DY are omitted for DO_NOTHING.
type ActionRef struct {
	Type string `json:"type"`
	DX   int    `json:"dx,omitempty"`
	DY   int    `json:"dy,omitempty"`
}

// DECIDE (server -> policy client). One per creature turn; Seq is echoed in
// the ACT reply.
type DecideMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Seq             uint64      `json:"seq"`
	Tick            uint64      `json:"tick"`
	Species         int         `json:"species"`
	Member          int         `json:"member"`
	Features        []float64   `json:"features"`
	Food            int         `json:"food"`
	TimeLeft        int         `json:"time_left"`
	Reward          float64     `json:"reward"`
	Legal           []ActionRef `json:"legal"`
}

// ACT (policy client -> server)
type ActMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Seq             uint64    `json:"seq"`
	Tick            uint64    `json:"tick"`
	Member          int       `json:"member"`
	Action          ActionRef `json:"action"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

// SUBSCRIBE (observer -> server). First message on the observer connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// Frame cell codes. Unlike the policy feature encoding these are for
// drawing and separate fed from eaten bushes.
const (
	CellEmpty     = 0
	CellBushEaten = 1
	CellBushFed   = 2
	CellWall      = 3
	CellCreature  = 4
)

// FRAME (server -> observer). Sent after every tick. Rows holds one RLE
// string of cell codes per grid row.
type FrameMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	WorldID         string         `json:"world_id"`
	Tick            uint64         `json:"tick"`
	Moon            uint64         `json:"moon"`
	TimeLeft        int            `json:"time_left"`
	Width           int            `json:"width"`
	Height          int            `json:"height"`
	Rows            []string       `json:"rows"`
	Creatures       []CreatureInfo `json:"creatures"`
	Walls           []WallInfo     `json:"walls"`
	Species         []SpeciesInfo  `json:"species"`
	Extinct         bool           `json:"extinct"`
}

type CreatureInfo struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	Species int `json:"species"`
	Food    int `json:"food"`
}

type WallInfo struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	Species int `json:"species"`
}

type SpeciesInfo struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Population int    `json:"population"`
	TotalFood  int    `json:"total_food"`
}
