package objects

import "time"

// PlayerPhoto 球员头像的存储位置
type PlayerPhoto struct {
	PlayerID  int    `gorm:"primaryKey;autoIncrement:false"`
	Code      int
	URL       string `gorm:"size:512"`
	UpdatedAt time.Time
}

func (PlayerPhoto) TableName() string {
	return "fpl_player_photos"
}

// LiveStat 比赛周内球员的实时数据，(event_id, player_id) 唯一
type LiveStat struct {
	ID            uint `gorm:"primarykey"`
	EventID       int  `gorm:"uniqueIndex:idx_live_event_player"`
	PlayerID      int  `gorm:"uniqueIndex:idx_live_event_player"`
	Minutes       int
	GoalsScored   int
	Assists       int
	CleanSheets   int
	GoalsConceded int
	Saves         int
	YellowCards   int
	RedCards      int
	Bonus         int
	Bps           int
	TotalPoints   int
	UpdatedAt     time.Time
}

func (LiveStat) TableName() string {
	return "fpl_live_stats"
}

// All 所有需要迁移的表
func All() []any {
	return []any{
		&Event{}, &Club{}, &Player{}, &Fixture{},
		&LeagueEntry{}, &Transfer{}, &PlayerPhoto{}, &LiveStat{},
		&SysJobLog{},
	}
}
