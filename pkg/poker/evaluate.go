package poker

import (
	"fmt"
	"sort"

	"pokernight-server/pkg/deck"
)

// Evaluate returns the best 5-card HandRank that can be made from 5 to 7 cards.
// The result does not depend on the order of the input cards.
func Evaluate(cards []deck.Card) (HandRank, error) {
	n := len(cards)
	if n < 5 || n > 7 {
		return HandRank{}, fmt.Errorf("evaluate requires 5 to 7 cards, got %d", n)
	}

	if n == 5 {
		return evaluateFive(cards), nil
	}

	var best HandRank
	found := false
	combo := make([]deck.Card, 5)

	pick(cards, combo, 0, 0, func() {
		rank := evaluateFive(combo)
		if !found || best.Less(rank) {
			best = rank
			found = true
		}
	})

	return best, nil
}

// pick visits every 5-card combination of cards
func pick(cards, combo []deck.Card, start, depth int, visit func()) {
	if depth == len(combo) {
		visit()
		return
	}

	for i := start; i <= len(cards)-(len(combo)-depth); i++ {
		combo[depth] = cards[i]
		pick(cards, combo, i+1, depth+1, visit)
	}
}

func evaluateFive(cards []deck.Card) HandRank {
	ranks := make([]int, 5)
	for i, c := range cards {
		ranks[i] = c.Rank
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	isFlush := true
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			isFlush = false
			break
		}
	}

	straightHigh, isStraight := straightHighCard(ranks)

	if isStraight && isFlush {
		if straightHigh == deck.Ace {
			return HandRank{Category: RoyalFlush, Tiebreaks: []int{deck.Ace}}
		}

		return HandRank{Category: StraightFlush, Tiebreaks: []int{straightHigh}}
	}

	groups := groupByCount(ranks)

	if groups[0].count == 4 {
		return HandRank{Category: FourOfAKind, Tiebreaks: []int{groups[0].rank, groups[1].rank}}
	}

	if groups[0].count == 3 && groups[1].count == 2 {
		return HandRank{Category: FullHouse, Tiebreaks: []int{groups[0].rank, groups[1].rank}}
	}

	if isFlush {
		return HandRank{Category: Flush, Tiebreaks: ranks}
	}

	if isStraight {
		return HandRank{Category: Straight, Tiebreaks: []int{straightHigh}}
	}

	if groups[0].count == 3 {
		return HandRank{Category: ThreeOfAKind, Tiebreaks: []int{groups[0].rank, groups[1].rank, groups[2].rank}}
	}

	if groups[0].count == 2 && groups[1].count == 2 {
		return HandRank{Category: TwoPair, Tiebreaks: []int{groups[0].rank, groups[1].rank, groups[2].rank}}
	}

	if groups[0].count == 2 {
		return HandRank{Category: OnePair, Tiebreaks: []int{groups[0].rank, groups[1].rank, groups[2].rank, groups[3].rank}}
	}

	return HandRank{Category: HighCard, Tiebreaks: ranks}
}

// straightHighCard returns the high card of a straight made from the five
// descending ranks, if one exists. The wheel (A-2-3-4-5) is a 5-high straight.
func straightHighCard(ranks []int) (int, bool) {
	for i := 1; i < 5; i++ {
		if ranks[i-1] == ranks[i] {
			return 0, false
		}
	}

	if ranks[0]-ranks[4] == 4 {
		return ranks[0], true
	}

	if ranks[0] == deck.Ace && ranks[1] == 5 && ranks[4] == 2 {
		return 5, true
	}

	return 0, false
}

type rankGroup struct {
	rank  int
	count int
}

// groupByCount buckets the descending ranks by multiplicity,
// ordered by count then rank, both descending
func groupByCount(ranks []int) []rankGroup {
	groups := make([]rankGroup, 0, 5)
	for _, r := range ranks {
		if len(groups) > 0 && groups[len(groups)-1].rank == r {
			groups[len(groups)-1].count++
			continue
		}

		groups = append(groups, rankGroup{rank: r, count: 1})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}

		return groups[i].rank > groups[j].rank
	})

	return groups
}
