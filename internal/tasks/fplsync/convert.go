package fplsync

import (
	"strconv"

	"github.com/iceymoss/go-fpl/pkg/db/objects"
	"github.com/iceymoss/go-fpl/pkg/fpl"
)

func toEvents(in []fpl.Event) []objects.Event {
	out := make([]objects.Event, 0, len(in))
	for _, e := range in {
		out = append(out, objects.Event{
			ID:                e.ID,
			Name:              e.Name,
			DeadlineTime:      e.DeadlineTime,
			AverageEntryScore: e.AverageEntryScore,
			HighestScore:      e.HighestScore,
			Finished:          e.Finished,
			IsCurrent:         e.IsCurrent,
			IsNext:            e.IsNext,
		})
	}
	return out
}

func toClubs(in []fpl.Team) []objects.Club {
	out := make([]objects.Club, 0, len(in))
	for _, t := range in {
		out = append(out, objects.Club{
			ID:        t.ID,
			Code:      t.Code,
			Name:      t.Name,
			ShortName: t.ShortName,
			Strength:  t.Strength,
			Position:  t.Position,
			Points:    t.Points,
		})
	}
	return out
}

func toPlayers(in []fpl.Element) []objects.Player {
	out := make([]objects.Player, 0, len(in))
	for _, e := range in {
		out = append(out, objects.Player{
			ID:                e.ID,
			Code:              e.Code,
			FirstName:         e.FirstName,
			SecondName:        e.SecondName,
			WebName:           e.WebName,
			ClubID:            e.Team,
			Position:          e.ElementType,
			Status:            e.Status,
			NowCost:           e.NowCost,
			TotalPoints:       e.TotalPoints,
			Form:              parseDecimal(e.Form),
			SelectedByPercent: parseDecimal(e.SelectedByPercent),
		})
	}
	return out
}

func toFixtures(in []fpl.Fixture) []objects.Fixture {
	out := make([]objects.Fixture, 0, len(in))
	for _, f := range in {
		out = append(out, objects.Fixture{
			ID:             f.ID,
			Code:           f.Code,
			EventID:        f.Event,
			KickoffTime:    f.KickoffTime,
			HomeClubID:     f.TeamH,
			AwayClubID:     f.TeamA,
			HomeScore:      f.TeamHScore,
			AwayScore:      f.TeamAScore,
			HomeDifficulty: f.TeamHDifficulty,
			AwayDifficulty: f.TeamADifficulty,
			Started:        f.Started,
			Finished:       f.Finished,
			Minutes:        f.Minutes,
		})
	}
	return out
}

func toLeagueEntries(page *fpl.LeagueStandings) []objects.LeagueEntry {
	out := make([]objects.LeagueEntry, 0, len(page.Standings.Results))
	for _, r := range page.Standings.Results {
		out = append(out, objects.LeagueEntry{
			LeagueID:   page.League.ID,
			LeagueName: page.League.Name,
			EntryID:    r.Entry,
			EntryName:  r.EntryName,
			PlayerName: r.PlayerName,
			Rank:       r.Rank,
			LastRank:   r.LastRank,
			EventTotal: r.EventTotal,
			Total:      r.Total,
		})
	}
	return out
}

func toTransfers(in []fpl.Transfer) []objects.Transfer {
	out := make([]objects.Transfer, 0, len(in))
	for _, t := range in {
		out = append(out, objects.Transfer{
			EntryID:        t.Entry,
			EventID:        t.Event,
			ElementIn:      t.ElementIn,
			ElementInCost:  t.ElementInCost,
			ElementOut:     t.ElementOut,
			ElementOutCost: t.ElementOutCost,
			MadeAt:         t.Time,
		})
	}
	return out
}

func toLiveStats(eventID int, live *fpl.EventLive) []objects.LiveStat {
	out := make([]objects.LiveStat, 0, len(live.Elements))
	for _, e := range live.Elements {
		s := e.Stats
		out = append(out, objects.LiveStat{
			EventID:       eventID,
			PlayerID:      e.ID,
			Minutes:       s.Minutes,
			GoalsScored:   s.GoalsScored,
			Assists:       s.Assists,
			CleanSheets:   s.CleanSheets,
			GoalsConceded: s.GoalsConceded,
			Saves:         s.Saves,
			YellowCards:   s.YellowCards,
			RedCards:      s.RedCards,
			Bonus:         s.Bonus,
			Bps:           s.Bps,
			TotalPoints:   s.TotalPoints,
		})
	}
	return out
}

// parseDecimal FPL 把 form 这类小数作为字符串返回，解析失败按 0
func parseDecimal(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
