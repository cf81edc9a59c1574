package objects

import "time"

// Event 比赛周，主键沿用 FPL 的 id
type Event struct {
	ID                int    `gorm:"primaryKey;autoIncrement:false"`
	Name              string `gorm:"size:64"`
	DeadlineTime      *time.Time
	AverageEntryScore int
	HighestScore      *int
	Finished          bool
	IsCurrent         bool `gorm:"index"`
	IsNext            bool
	UpdatedAt         time.Time
}

func (Event) TableName() string {
	return "fpl_events"
}

// Club 俱乐部
type Club struct {
	ID        int    `gorm:"primaryKey;autoIncrement:false"`
	Code      int    `gorm:"uniqueIndex"`
	Name      string `gorm:"size:64"`
	ShortName string `gorm:"size:8"`
	Strength  int
	Position  int
	Points    int
	UpdatedAt time.Time
}

func (Club) TableName() string {
	return "fpl_clubs"
}

// Player 球员，ClubID 引用 fpl_clubs.id
type Player struct {
	ID                int    `gorm:"primaryKey;autoIncrement:false"`
	Code              int    `gorm:"uniqueIndex"`
	FirstName         string `gorm:"size:64"`
	SecondName        string `gorm:"size:64"`
	WebName           string `gorm:"size:64;index"`
	ClubID            int    `gorm:"index"`
	Position          int
	Status            string `gorm:"size:4"`
	NowCost           int
	TotalPoints       int
	Form              float64
	SelectedByPercent float64
	UpdatedAt         time.Time
}

func (Player) TableName() string {
	return "fpl_players"
}

// Fixture 比赛，EventID 为空表示还没排期
type Fixture struct {
	ID             int  `gorm:"primaryKey;autoIncrement:false"`
	Code           int  `gorm:"uniqueIndex"`
	EventID        *int `gorm:"index"`
	KickoffTime    *time.Time
	HomeClubID     int
	AwayClubID     int
	HomeScore      *int
	AwayScore      *int
	HomeDifficulty int
	AwayDifficulty int
	Started        bool
	Finished       bool
	Minutes        int
	UpdatedAt      time.Time
}

func (Fixture) TableName() string {
	return "fpl_fixtures"
}
