package livescore

type gamesResponse struct {
	Games []gameResponse `json:"games"`
}

type gameEnvelope struct {
	Game gameResponse `json:"game"`
}

type gameResponse struct {
	ID                     int                `json:"id"`
	StartTime              string             `json:"startTime"`
	StatusText             string             `json:"statusText"`
	ShortStatusText        string             `json:"shortStatusText"`
	GameTime               float64            `json:"gameTime"`
	CompetitionID          int                `json:"competitionId"`
	CompetitionDisplayName string             `json:"competitionDisplayName"`
	HomeCompetitor         competitorResponse `json:"homeCompetitor"`
	AwayCompetitor         competitorResponse `json:"awayCompetitor"`
	Events                 []eventResponse    `json:"events"`
	Members                []memberResponse   `json:"members"`
}

type competitorResponse struct {
	ID      int              `json:"id"`
	Name    string           `json:"name"`
	Score   float64          `json:"score"`
	Lineups *lineupsResponse `json:"lineups,omitempty"`
}

type eventResponse struct {
	Order           int               `json:"order"`
	GameTime        float64           `json:"gameTime"`
	GameTimeDisplay string            `json:"gameTimeDisplay"`
	CompetitorID    int               `json:"competitorId"`
	PlayerID        int               `json:"playerId"`
	EventType       eventTypeResponse `json:"eventType"`
}

type eventTypeResponse struct {
	Name        string `json:"name"`
	SubTypeName string `json:"subTypeName"`
}

type memberResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

type lineupsResponse struct {
	Formation string                 `json:"formation"`
	Members   []lineupMemberResponse `json:"members"`
}

type lineupMemberResponse struct {
	ID            int                    `json:"id"`
	Position      *positionResponse      `json:"position,omitempty"`
	YardFormation *yardFormationResponse `json:"yardFormation,omitempty"`
}

type positionResponse struct {
	Name string `json:"name"`
}

type yardFormationResponse struct {
	Line          int `json:"line"`
	FieldPosition int `json:"fieldPosition"`
}
