package diff

type edit struct {
	kind   OpKind
	ai, bi int
}

// lcs returns an edit script from a to b along a longest common
// subsequence. Deletions come before insertions within a gap.
func lcs[T comparable](a, b []T) []edit {
	n, m := len(a), len(b)
	// dp[i][j] is the LCS length of a[i:] and b[j:].
	dp := make([][]int32, n+1)
	for i := range dp {
		dp[i] = make([]int32, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else {
				dp[i][j] = max(dp[i+1][j], dp[i][j+1])
			}
		}
	}

	edits := make([]edit, 0, n+m)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			edits = append(edits, edit{OpEqual, i, j})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			edits = append(edits, edit{OpDelete, i, j})
			i++
		default:
			edits = append(edits, edit{OpInsert, i, j})
			j++
		}
	}
	for ; i < n; i++ {
		edits = append(edits, edit{OpDelete, i, j})
	}
	for ; j < m; j++ {
		edits = append(edits, edit{OpInsert, i, j})
	}
	return edits
}
