package aggregate

import "sort"

// RankMembers sorts members by the canonical ranking:
// 1. Total seconds: higher first
// 2. Tasks completed: higher first
// 3. User ID: lexical ascending
func RankMembers(members []MemberStats) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]

		if a.TotalSeconds != b.TotalSeconds {
			return a.TotalSeconds > b.TotalSeconds
		}

		if a.TasksCompletedCount != b.TasksCompletedCount {
			return a.TasksCompletedCount > b.TasksCompletedCount
		}

		return a.UserID < b.UserID
	})
}
