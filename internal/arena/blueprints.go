package arena

import (
	"fmt"
	"sort"
	"strings"

	"code_arena/internal/domain/model"
)

// Draft is the raw material a blueprint produces before the generator stamps
// ids, difficulty and ratings onto it.
type Draft struct {
	Name        string
	Description string
	Examples    []model.Example
	Constraints string
	Tags        []string
}

// Blueprint synthesizes one concrete problem from generator draws. Blueprints
// must be pure: same draw sequence, same draft.
type Blueprint func(r *Rand) Draft

// topicBlueprints maps every topic used by the rating bands to a non-empty
// ordered blueprint list. An empty list here would break battle generation,
// so keep the map total when adding topics.
var topicBlueprints = map[string][]Blueprint{
	"arrays":          {maxPairwiseProduct, secondLargest},
	"strings":         {reversedWords, vowelCount},
	"math":            {digitSum, divisibleCount},
	"sorting":         {medianAfterSorting},
	"hashing":         {firstRepeated},
	"greedy":          {coinMinimum, activitySelection},
	"dp-basic":        {climbingStairs},
	"graphs-basic":    {connectedComponents},
	"two-pointers":    {pairsWithSum},
	"dp":              {longestIncreasingSubsequence, maximumSubarray},
	"graphs":          {shortestUnweightedPath},
	"number-theory":   {gcdOfArray, primesUpTo},
	"prefix-sums":     {rangeSumQueries},
	"dp-hard":         {boundedKnapsack},
	"graphs-advanced": {longestDagPath},
	"combinatorics":   {binomialCount},
	"bitmask":         {evenSumSubsets},
	"trees":           {treeHeight},
}

// TopicsForRating resolves the topic pool for a rating band. Order matters:
// the generator walks this slice deterministically.
func TopicsForRating(rating int) []string {
	switch {
	case rating < 1200:
		return []string{"arrays", "strings", "math", "sorting", "hashing"}
	case rating < 1600:
		return []string{"greedy", "dp-basic", "graphs-basic", "two-pointers"}
	case rating < 2000:
		return []string{"dp", "graphs", "number-theory", "prefix-sums"}
	default:
		return []string{"dp-hard", "graphs-advanced", "combinatorics", "bitmask", "trees"}
	}
}

// BlueprintsForTopic returns the blueprint list for a topic. The map is total
// over every topic a band can produce.
func BlueprintsForTopic(topic string) []Blueprint {
	return topicBlueprints[topic]
}

func randArray(r *Rand, n, lo, hi int) []int {
	a := make([]int, n)
	for i := range a {
		a[i] = r.Between(lo, hi)
	}
	return a
}

func joinInts(a []int) string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, " ")
}

func arrayExample(a []int, answer int) model.Example {
	return model.Example{
		Input:  fmt.Sprintf("%d\n%s", len(a), joinInts(a)),
		Output: fmt.Sprintf("%d", answer),
	}
}

// --- fundamentals ---

func maxPairwiseProduct(r *Rand) Draft {
	limit := Pick(r, []int{1000, 10000, 100000})
	a := randArray(r, r.Between(4, 7), 1, 50)
	b := append([]int(nil), a...)
	sort.Ints(b)
	ans := b[len(b)-1] * b[len(b)-2]
	return Draft{
		Name: "Maximum Pairwise Product",
		Description: fmt.Sprintf(
			"You are given n positive integers. Find the maximum product of two distinct elements. "+
				"The first line contains n, the second line the n integers, each at most %d.", limit),
		Examples:    []model.Example{arrayExample(a, ans)},
		Constraints: fmt.Sprintf("2 <= n <= 2*10^5, 1 <= a_i <= %d", limit),
		Tags:        []string{"arrays", "implementation"},
	}
}

func secondLargest(r *Rand) Draft {
	a := randArray(r, r.Between(5, 8), 1, 99)
	b := append([]int(nil), a...)
	sort.Ints(b)
	// largest strictly smaller than the maximum; fall back to max on ties
	ans := b[len(b)-1]
	for i := len(b) - 2; i >= 0; i-- {
		if b[i] != b[len(b)-1] {
			ans = b[i]
			break
		}
	}
	return Draft{
		Name: "Second Largest Value",
		Description: "Given n integers, print the largest value that is strictly smaller than the maximum. " +
			"If every element equals the maximum, print the maximum itself.",
		Examples:    []model.Example{arrayExample(a, ans)},
		Constraints: "2 <= n <= 10^5, 1 <= a_i <= 10^9",
		Tags:        []string{"arrays"},
	}
}

func reversedWords(r *Rand) Draft {
	words := []string{"arena", "battle", "code", "rating", "judge", "swift", "delta", "spark"}
	n := r.Between(3, 5)
	chosen := make([]string, n)
	for i := range chosen {
		chosen[i] = Pick(r, words)
	}
	rev := make([]string, n)
	for i := range chosen {
		rev[n-1-i] = chosen[i]
	}
	return Draft{
		Name: "Reversed Sentence",
		Description: "You are given a line of lowercase words separated by single spaces. " +
			"Print the words in reverse order on one line.",
		Examples: []model.Example{{
			Input:  strings.Join(chosen, " "),
			Output: strings.Join(rev, " "),
		}},
		Constraints: "1 <= number of words <= 10^4, each word has at most 20 letters",
		Tags:        []string{"strings", "implementation"},
	}
}

func vowelCount(r *Rand) Draft {
	words := []string{"tournament", "algorithm", "submission", "competitive", "benchmark"}
	w := Pick(r, words)
	count := 0
	for _, c := range w {
		if strings.ContainsRune("aeiou", c) {
			count++
		}
	}
	return Draft{
		Name: "Vowel Census",
		Description: "Count how many characters of the given lowercase string are vowels (a, e, i, o, u) " +
			"and print the count.",
		Examples: []model.Example{{
			Input:  w,
			Output: fmt.Sprintf("%d", count),
		}},
		Constraints: "1 <= |s| <= 10^5",
		Tags:        []string{"strings"},
	}
}

func digitSum(r *Rand) Draft {
	n := r.Between(1000, 999999)
	s, x := 0, n
	for x > 0 {
		s += x % 10
		x /= 10
	}
	return Draft{
		Name:        "Digit Sum",
		Description: "Read a single integer N and print the sum of its decimal digits.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d", n),
			Output: fmt.Sprintf("%d", s),
		}},
		Constraints: "0 <= N <= 10^18",
		Tags:        []string{"math", "implementation"},
	}
}

func divisibleCount(r *Rand) Draft {
	n := r.Between(50, 500)
	k := r.Between(2, 9)
	return Draft{
		Name:        "Multiples in Range",
		Description: "Given N and K, print how many integers in [1, N] are divisible by K.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d %d", n, k),
			Output: fmt.Sprintf("%d", n/k),
		}},
		Constraints: "1 <= K <= N <= 10^9",
		Tags:        []string{"math"},
	}
}

func medianAfterSorting(r *Rand) Draft {
	n := 2*r.Between(2, 4) + 1 // odd length keeps the median unambiguous
	a := randArray(r, n, 1, 60)
	b := append([]int(nil), a...)
	sort.Ints(b)
	return Draft{
		Name:        "Middle of the Sorted Array",
		Description: "Sort the given array of n integers (n is odd) and print the middle element.",
		Examples:    []model.Example{arrayExample(a, b[n/2])},
		Constraints: "1 <= n <= 10^5 (n odd), 1 <= a_i <= 10^9",
		Tags:        []string{"sorting"},
	}
}

func firstRepeated(r *Rand) Draft {
	a := randArray(r, r.Between(5, 8), 1, 6)
	seen := map[int]bool{}
	ans := -1
	for _, v := range a {
		if seen[v] {
			ans = v
			break
		}
		seen[v] = true
	}
	return Draft{
		Name: "First Repeated Value",
		Description: "Scan the array left to right and print the first value that has appeared before. " +
			"Print -1 if all values are distinct.",
		Examples:    []model.Example{arrayExample(a, ans)},
		Constraints: "1 <= n <= 2*10^5, 1 <= a_i <= 10^9",
		Tags:        []string{"hashing", "arrays"},
	}
}

// --- 1200-1599 band ---

func coinMinimum(r *Rand) Draft {
	total := r.Between(30, 290)
	rest, cnt := total, 0
	for _, c := range []int{25, 10, 5, 1} {
		cnt += rest / c
		rest %= c
	}
	return Draft{
		Name: "Fewest Coins",
		Description: "You pay an amount X using coins of value 1, 5, 10 and 25. " +
			"Print the minimum number of coins needed.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d", total),
			Output: fmt.Sprintf("%d", cnt),
		}},
		Constraints: "1 <= X <= 10^9",
		Tags:        []string{"greedy"},
	}
}

func activitySelection(r *Rand) Draft {
	n := r.Between(4, 6)
	type iv struct{ s, e int }
	ivs := make([]iv, n)
	for i := range ivs {
		s := r.Between(0, 20)
		ivs[i] = iv{s, s + r.Between(1, 8)}
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].e < ivs[j].e })
	count, last := 0, -1
	var lines []string
	for _, v := range ivs {
		if v.s >= last {
			count++
			last = v.e
		}
	}
	// print intervals in original randomized order for the statement
	for _, v := range ivs {
		lines = append(lines, fmt.Sprintf("%d %d", v.s, v.e))
	}
	return Draft{
		Name: "Busy Schedule",
		Description: "You are given n intervals [s, e). Select the maximum number of pairwise " +
			"non-overlapping intervals and print that maximum.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d\n%s", n, strings.Join(lines, "\n")),
			Output: fmt.Sprintf("%d", count),
		}},
		Constraints: "1 <= n <= 2*10^5, 0 <= s < e <= 10^9",
		Tags:        []string{"greedy", "sorting"},
	}
}

func climbingStairs(r *Rand) Draft {
	n := r.Between(3, 12)
	a, b := 1, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return Draft{
		Name: "Staircase Ways",
		Description: "A staircase has N steps. From each position you may climb 1 or 2 steps. " +
			"Print the number of distinct ways to reach the top.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d", n),
			Output: fmt.Sprintf("%d", a),
		}},
		Constraints: "1 <= N <= 45",
		Tags:        []string{"dp-basic"},
	}
}

func connectedComponents(r *Rand) Draft {
	n := r.Between(5, 7)
	m := r.Between(3, n)
	parent := make([]int, n+1)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	var lines []string
	for i := 0; i < m; i++ {
		u, v := r.Between(1, n), r.Between(1, n)
		lines = append(lines, fmt.Sprintf("%d %d", u, v))
		parent[find(u)] = find(v)
	}
	comps := 0
	for i := 1; i <= n; i++ {
		if find(i) == i {
			comps++
		}
	}
	return Draft{
		Name: "Island Count",
		Description: "An undirected graph has n vertices and m edges. " +
			"Print the number of connected components.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d %d\n%s", n, m, strings.Join(lines, "\n")),
			Output: fmt.Sprintf("%d", comps),
		}},
		Constraints: "1 <= n <= 2*10^5, 0 <= m <= 2*10^5",
		Tags:        []string{"graphs-basic", "dsu"},
	}
}

func pairsWithSum(r *Rand) Draft {
	a := randArray(r, r.Between(5, 8), 1, 20)
	sort.Ints(a)
	target := a[0] + a[len(a)-1]
	count := 0
	for i, j := 0, len(a)-1; i < j; {
		switch s := a[i] + a[j]; {
		case s == target:
			count++
			i++
			j--
		case s < target:
			i++
		default:
			j--
		}
	}
	return Draft{
		Name: "Target Pair Count",
		Description: "Given a sorted array and a target T, count index pairs i < j with a_i + a_j = T, " +
			"where each index participates in at most one counted pair.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d %d\n%s", len(a), target, joinInts(a)),
			Output: fmt.Sprintf("%d", count),
		}},
		Constraints: "2 <= n <= 2*10^5, 1 <= a_i, T <= 10^9",
		Tags:        []string{"two-pointers"},
	}
}

// --- 1600-1999 band ---

func longestIncreasingSubsequence(r *Rand) Draft {
	a := randArray(r, r.Between(6, 9), 1, 30)
	dp := make([]int, len(a))
	best := 0
	for i := range a {
		dp[i] = 1
		for j := 0; j < i; j++ {
			if a[j] < a[i] && dp[j]+1 > dp[i] {
				dp[i] = dp[j] + 1
			}
		}
		if dp[i] > best {
			best = dp[i]
		}
	}
	return Draft{
		Name:        "Longest Rising Run",
		Description: "Print the length of the longest strictly increasing subsequence of the given array.",
		Examples:    []model.Example{arrayExample(a, best)},
		Constraints: "1 <= n <= 2*10^5, 1 <= a_i <= 10^9",
		Tags:        []string{"dp"},
	}
}

func maximumSubarray(r *Rand) Draft {
	a := randArray(r, r.Between(6, 9), -15, 20)
	best, cur := a[0], a[0]
	for _, v := range a[1:] {
		if cur < 0 {
			cur = 0
		}
		cur += v
		if cur > best {
			best = cur
		}
	}
	return Draft{
		Name:        "Best Segment Sum",
		Description: "Print the maximum sum over all non-empty contiguous segments of the array.",
		Examples:    []model.Example{arrayExample(a, best)},
		Constraints: "1 <= n <= 2*10^5, -10^9 <= a_i <= 10^9",
		Tags:        []string{"dp", "arrays"},
	}
}

func shortestUnweightedPath(r *Rand) Draft {
	n := r.Between(5, 7)
	adj := make([][]int, n+1)
	var lines []string
	addEdge := func(u, v int) {
		adj[u] = append(adj[u], v)
		adj[v] = append(adj[v], u)
		lines = append(lines, fmt.Sprintf("%d %d", u, v))
	}
	// a path 1..n guarantees reachability, then a few random chords
	for i := 1; i < n; i++ {
		addEdge(i, i+1)
	}
	extra := r.Between(1, 3)
	for i := 0; i < extra; i++ {
		addEdge(r.Between(1, n), r.Between(1, n))
	}
	dist := make([]int, n+1)
	for i := range dist {
		dist[i] = -1
	}
	dist[1] = 0
	queue := []int{1}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adj[u] {
			if dist[v] == -1 {
				dist[v] = dist[u] + 1
				queue = append(queue, v)
			}
		}
	}
	return Draft{
		Name: "Fastest Route",
		Description: "An undirected graph has n vertices and m edges. " +
			"Print the number of edges on a shortest path from vertex 1 to vertex n.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d %d\n%s", n, len(lines), strings.Join(lines, "\n")),
			Output: fmt.Sprintf("%d", dist[n]),
		}},
		Constraints: "2 <= n <= 2*10^5, 1 <= m <= 2*10^5",
		Tags:        []string{"graphs", "bfs"},
	}
}

func gcdOfArray(r *Rand) Draft {
	g := r.Between(2, 9)
	n := r.Between(4, 6)
	a := make([]int, n)
	for i := range a {
		a[i] = g * r.Between(1, 12)
	}
	gcd := func(x, y int) int {
		for y != 0 {
			x, y = y, x%y
		}
		return x
	}
	ans := a[0]
	for _, v := range a[1:] {
		ans = gcd(ans, v)
	}
	return Draft{
		Name:        "Common Divisor",
		Description: "Print the greatest common divisor of the n given integers.",
		Examples:    []model.Example{arrayExample(a, ans)},
		Constraints: "1 <= n <= 2*10^5, 1 <= a_i <= 10^9",
		Tags:        []string{"number-theory"},
	}
}

func primesUpTo(r *Rand) Draft {
	n := r.Between(20, 150)
	sieve := make([]bool, n+1)
	count := 0
	for i := 2; i <= n; i++ {
		if !sieve[i] {
			count++
			for j := i * i; j <= n; j += i {
				sieve[j] = true
			}
		}
	}
	return Draft{
		Name:        "Prime Tally",
		Description: "Print how many prime numbers are less than or equal to N.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d", n),
			Output: fmt.Sprintf("%d", count),
		}},
		Constraints: "2 <= N <= 10^7",
		Tags:        []string{"number-theory", "sieve"},
	}
}

func rangeSumQueries(r *Rand) Draft {
	a := randArray(r, r.Between(5, 7), 1, 30)
	q := 2
	prefix := make([]int, len(a)+1)
	for i, v := range a {
		prefix[i+1] = prefix[i] + v
	}
	var qLines, outs []string
	for i := 0; i < q; i++ {
		l := r.Between(1, len(a))
		rr := r.Between(l, len(a))
		qLines = append(qLines, fmt.Sprintf("%d %d", l, rr))
		outs = append(outs, fmt.Sprintf("%d", prefix[rr]-prefix[l-1]))
	}
	return Draft{
		Name: "Segment Totals",
		Description: "Given an array and q queries (l, r), print the sum a_l + ... + a_r for each query, " +
			"one answer per line.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d %d\n%s\n%s", len(a), q, joinInts(a), strings.Join(qLines, "\n")),
			Output: strings.Join(outs, "\n"),
		}},
		Constraints: "1 <= n, q <= 2*10^5, 1 <= a_i <= 10^9",
		Tags:        []string{"prefix-sums"},
	}
}

// --- 2000+ band ---

func boundedKnapsack(r *Rand) Draft {
	n := r.Between(3, 5)
	capW := r.Between(8, 15)
	w := randArray(r, n, 1, 7)
	v := randArray(r, n, 1, 20)
	dp := make([]int, capW+1)
	for i := 0; i < n; i++ {
		for c := capW; c >= w[i]; c-- {
			if dp[c-w[i]]+v[i] > dp[c] {
				dp[c] = dp[c-w[i]] + v[i]
			}
		}
	}
	var lines []string
	for i := 0; i < n; i++ {
		lines = append(lines, fmt.Sprintf("%d %d", w[i], v[i]))
	}
	return Draft{
		Name: "Backpack Packing",
		Description: "You have n items with weight w_i and value v_i and a backpack of capacity W. " +
			"Each item may be taken at most once. Print the maximum total value that fits.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d %d\n%s", n, capW, strings.Join(lines, "\n")),
			Output: fmt.Sprintf("%d", dp[capW]),
		}},
		Constraints: "1 <= n <= 100, 1 <= W <= 10^5, 1 <= w_i <= W, 1 <= v_i <= 10^9",
		Tags:        []string{"dp-hard", "knapsack"},
	}
}

func longestDagPath(r *Rand) Draft {
	n := r.Between(5, 7)
	var lines []string
	adj := make([][]int, n+1)
	// edges only go forward, so the graph is a DAG by construction
	for u := 1; u < n; u++ {
		deg := r.Between(1, 2)
		for k := 0; k < deg; k++ {
			v := r.Between(u+1, n)
			adj[u] = append(adj[u], v)
			lines = append(lines, fmt.Sprintf("%d %d", u, v))
		}
	}
	dp := make([]int, n+1)
	best := 0
	for u := n; u >= 1; u-- {
		for _, v := range adj[u] {
			if dp[v]+1 > dp[u] {
				dp[u] = dp[v] + 1
			}
		}
		if dp[u] > best {
			best = dp[u]
		}
	}
	return Draft{
		Name: "Longest Chain of Tasks",
		Description: "A directed acyclic graph has n vertices and m edges. " +
			"Print the number of edges on the longest directed path.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d %d\n%s", n, len(lines), strings.Join(lines, "\n")),
			Output: fmt.Sprintf("%d", best),
		}},
		Constraints: "1 <= n <= 2*10^5, 0 <= m <= 2*10^5",
		Tags:        []string{"graphs-advanced", "dag"},
	}
}

func binomialCount(r *Rand) Draft {
	n := r.Between(5, 12)
	k := r.Between(1, n-1)
	c := 1
	for i := 0; i < k; i++ {
		c = c * (n - i) / (i + 1)
	}
	return Draft{
		Name:        "Team Selections",
		Description: "Print the number of ways to choose K members out of N candidates, C(N, K).",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d %d", n, k),
			Output: fmt.Sprintf("%d", c),
		}},
		Constraints: "1 <= K <= N <= 60",
		Tags:        []string{"combinatorics"},
	}
}

func evenSumSubsets(r *Rand) Draft {
	a := randArray(r, r.Between(4, 6), 1, 15)
	count := 0
	for mask := 1; mask < 1<<len(a); mask++ {
		s := 0
		for i := range a {
			if mask&(1<<i) != 0 {
				s += a[i]
			}
		}
		if s%2 == 0 {
			count++
		}
	}
	return Draft{
		Name: "Even Subset Count",
		Description: "Count the non-empty subsets of the given array whose element sum is even " +
			"and print the count.",
		Examples:    []model.Example{arrayExample(a, count)},
		Constraints: "1 <= n <= 20, 1 <= a_i <= 10^9",
		Tags:        []string{"bitmask"},
	}
}

func treeHeight(r *Rand) Draft {
	n := r.Between(5, 8)
	parent := make([]int, n+1)
	depth := make([]int, n+1)
	var parts []string
	best := 0
	for v := 2; v <= n; v++ {
		parent[v] = r.Between(1, v-1)
		depth[v] = depth[parent[v]] + 1
		parts = append(parts, fmt.Sprintf("%d", parent[v]))
		if depth[v] > best {
			best = depth[v]
		}
	}
	return Draft{
		Name: "Depth of the Tree",
		Description: "A rooted tree on n vertices is given by the parent of each vertex 2..n (vertex 1 is " +
			"the root). Print the maximum depth, where the root has depth 0.",
		Examples: []model.Example{{
			Input:  fmt.Sprintf("%d\n%s", n, strings.Join(parts, " ")),
			Output: fmt.Sprintf("%d", best),
		}},
		Constraints: "2 <= n <= 2*10^5",
		Tags:        []string{"trees"},
	}
}
