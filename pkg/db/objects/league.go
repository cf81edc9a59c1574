package objects

import "time"

// LeagueEntry 经典联赛积分榜里的一行，(league_id, entry_id) 唯一
type LeagueEntry struct {
	ID         uint   `gorm:"primarykey"`
	LeagueID   int    `gorm:"uniqueIndex:idx_league_entry"`
	EntryID    int    `gorm:"uniqueIndex:idx_league_entry;index"`
	LeagueName string `gorm:"size:128"`
	EntryName  string `gorm:"size:128"`
	PlayerName string `gorm:"size:128"`
	Rank       int    `gorm:"column:standing_rank"`
	LastRank   int
	EventTotal int
	Total      int
	UpdatedAt  time.Time
}

func (LeagueEntry) TableName() string {
	return "fpl_league_entries"
}

// Transfer 经理的一次转会
type Transfer struct {
	ID             uint `gorm:"primarykey"`
	EntryID        int  `gorm:"uniqueIndex:idx_transfer"`
	EventID        int  `gorm:"uniqueIndex:idx_transfer"`
	ElementIn      int  `gorm:"uniqueIndex:idx_transfer"`
	ElementOut     int  `gorm:"uniqueIndex:idx_transfer"`
	ElementInCost  int
	ElementOutCost int
	MadeAt         time.Time
	UpdatedAt      time.Time
}

func (Transfer) TableName() string {
	return "fpl_transfers"
}
