package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iceymoss/go-fpl/pkg/db/objects"
)

// StandingRow 看板展示用的积分榜行
type StandingRow struct {
	Rank       int    `db:"standing_rank" json:"rank"`
	EntryID    int    `db:"entry_id" json:"entry_id"`
	EntryName  string `db:"entry_name" json:"entry_name"`
	PlayerName string `db:"player_name" json:"player_name"`
	EventTotal int    `db:"event_total" json:"event_total"`
	Total      int    `db:"total" json:"total"`
}

// Report 看板的只读查询，走 sqlx 手写 SQL
type Report struct {
	db *sqlx.DB
}

func NewReport(db *sqlx.DB) *Report {
	return &Report{db: db}
}

const topStandingsSQL = `SELECT standing_rank, entry_id, entry_name, player_name, event_total, total
FROM fpl_league_entries
WHERE league_id = ?
ORDER BY standing_rank ASC, entry_id ASC
LIMIT ?`

// TopStandings 联赛前 n 名
func (r *Report) TopStandings(ctx context.Context, leagueID, n int) ([]StandingRow, error) {
	if n <= 0 {
		n = 50
	}
	rows := []StandingRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(topStandingsSQL), leagueID, n); err != nil {
		return nil, fmt.Errorf("report: standings league=%d: %w", leagueID, err)
	}
	return rows, nil
}

// ReportTables 看板统计行数的表
func ReportTables() []string {
	tables := []string{
		objects.Event{}.TableName(),
		objects.Club{}.TableName(),
		objects.Player{}.TableName(),
		objects.Fixture{}.TableName(),
		objects.LeagueEntry{}.TableName(),
		objects.Transfer{}.TableName(),
		objects.PlayerPhoto{}.TableName(),
		objects.LiveStat{}.TableName(),
		objects.SysJobLog{}.TableName(),
	}
	return tables
}

// TableCounts 每张表的行数
func (r *Report) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, table := range ReportTables() {
		var n int64
		// 表名来自固定列表，不是用户输入
		if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
			return nil, fmt.Errorf("report: count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
