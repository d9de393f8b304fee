package room

import (
	"sort"
	"time"

	"quiz-room-service/internal/domain"
)

// buildLeaderboard derives the ranked scoreboard from a room snapshot.
// Score descending; ties keep join order (stable sort, no further tie-break).
func buildLeaderboard(room *domain.Room, now time.Time) domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(room.Participants))
	for _, p := range room.Participants {
		entries = append(entries, domain.LeaderboardEntry{
			DisplayName: p.DisplayName,
			Score:       p.Score,
			Completed:   p.Completed,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return domain.Leaderboard{
		RoomID:    room.ID,
		Entries:   entries,
		UpdatedAt: now,
	}
}

// buildRoster lists joined participants in join order for the lobby view.
func buildRoster(room *domain.Room) []domain.RosterEntry {
	roster := make([]domain.RosterEntry, 0, len(room.Participants))
	for _, p := range room.Participants {
		name := p.DisplayName
		if name == "" {
			name = "Anonymous"
		}
		roster = append(roster, domain.RosterEntry{UserID: p.UserID, DisplayName: name})
	}
	return roster
}
