package fpl

import "time"

// Bootstrap bootstrap-static 返回的赛季全量数据
type Bootstrap struct {
	Events   []Event   `json:"events"`
	Teams    []Team    `json:"teams"`
	Elements []Element `json:"elements"`
}

// Event 一个比赛周 (gameweek)
type Event struct {
	ID                int        `json:"id"`
	Name              string     `json:"name"`
	DeadlineTime      *time.Time `json:"deadline_time"`
	AverageEntryScore int        `json:"average_entry_score"`
	HighestScore      *int       `json:"highest_score"`
	Finished          bool       `json:"finished"`
	DataChecked       bool       `json:"data_checked"`
	IsPrevious        bool       `json:"is_previous"`
	IsCurrent         bool       `json:"is_current"`
	IsNext            bool       `json:"is_next"`
}

// Team 俱乐部
type Team struct {
	ID        int    `json:"id"`
	Code      int    `json:"code"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Strength  int    `json:"strength"`
	Position  int    `json:"position"`
	Played    int    `json:"played"`
	Win       int    `json:"win"`
	Draw      int    `json:"draw"`
	Loss      int    `json:"loss"`
	Points    int    `json:"points"`
}

// Element 球员
type Element struct {
	ID                int    `json:"id"`
	Code              int    `json:"code"`
	FirstName         string `json:"first_name"`
	SecondName        string `json:"second_name"`
	WebName           string `json:"web_name"`
	Team              int    `json:"team"`
	ElementType       int    `json:"element_type"`
	Status            string `json:"status"`
	NowCost           int    `json:"now_cost"`
	TotalPoints       int    `json:"total_points"`
	EventPoints       int    `json:"event_points"`
	Form              string `json:"form"`
	SelectedByPercent string `json:"selected_by_percent"`
	Photo             string `json:"photo"`
}

// Fixture 一场比赛，Event 为空表示还没排进比赛周
type Fixture struct {
	ID              int        `json:"id"`
	Code            int        `json:"code"`
	Event           *int       `json:"event"`
	KickoffTime     *time.Time `json:"kickoff_time"`
	TeamH           int        `json:"team_h"`
	TeamA           int        `json:"team_a"`
	TeamHScore      *int       `json:"team_h_score"`
	TeamAScore      *int       `json:"team_a_score"`
	TeamHDifficulty int        `json:"team_h_difficulty"`
	TeamADifficulty int        `json:"team_a_difficulty"`
	Started         bool       `json:"started"`
	Finished        bool       `json:"finished"`
	Minutes         int        `json:"minutes"`
}

// LeagueStandings 经典联赛积分榜的一页
type LeagueStandings struct {
	League struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"league"`
	Standings struct {
		HasNext bool            `json:"has_next"`
		Page    int             `json:"page"`
		Results []StandingEntry `json:"results"`
	} `json:"standings"`
}

type StandingEntry struct {
	ID         int    `json:"id"`
	Entry      int    `json:"entry"`
	EntryName  string `json:"entry_name"`
	PlayerName string `json:"player_name"`
	Rank       int    `json:"rank"`
	LastRank   int    `json:"last_rank"`
	EventTotal int    `json:"event_total"`
	Total      int    `json:"total"`
}

// Transfer 一次转会记录
type Transfer struct {
	Entry          int       `json:"entry"`
	Event          int       `json:"event"`
	ElementIn      int       `json:"element_in"`
	ElementInCost  int       `json:"element_in_cost"`
	ElementOut     int       `json:"element_out"`
	ElementOutCost int       `json:"element_out_cost"`
	Time           time.Time `json:"time"`
}

// EventLive 比赛周实时数据
type EventLive struct {
	Elements []LiveElement `json:"elements"`
}

type LiveElement struct {
	ID    int       `json:"id"`
	Stats LiveStats `json:"stats"`
}

type LiveStats struct {
	Minutes       int  `json:"minutes"`
	GoalsScored   int  `json:"goals_scored"`
	Assists       int  `json:"assists"`
	CleanSheets   int  `json:"clean_sheets"`
	GoalsConceded int  `json:"goals_conceded"`
	Saves         int  `json:"saves"`
	YellowCards   int  `json:"yellow_cards"`
	RedCards      int  `json:"red_cards"`
	Bonus         int  `json:"bonus"`
	Bps           int  `json:"bps"`
	TotalPoints   int  `json:"total_points"`
	InDreamteam   bool `json:"in_dreamteam"`
}

// CurrentEvent 返回当前比赛周，没有则 ok=false
func (b *Bootstrap) CurrentEvent() (Event, bool) {
	for _, e := range b.Events {
		if e.IsCurrent {
			return e, true
		}
	}
	return Event{}, false
}
