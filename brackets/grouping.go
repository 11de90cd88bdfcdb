// Package brackets группирует матчи турнира для отображения сетки.
// Генерация сетки здесь не выполняется: матчи приходят уже созданными,
// пакет только раскладывает их по раундам.
package brackets

import (
	"sort"

	"github.com/playgrid/arena/models"
)

// TBD — подпись стороны матча, участник которой ещё не определён
// (поздние раунды сетки на выбывание).
const TBD = "TBD"

// MatchView — матч вместе с отображаемыми подписями сторон. Сторона без
// участника подписывается как TBD.
type MatchView struct {
	*models.Match
	Participant1Label string `json:"participant1_label"`
	Participant2Label string `json:"participant2_label"`
}

// Round — один раунд сетки на выбывание.
type Round struct {
	Number  int         `json:"number"`
	Matches []MatchView `json:"matches"`
}

// View — сгруппированная сетка. Для форматов на выбывание заполнено Rounds,
// для кругового формата — Flat (плоский хронологический список).
type View struct {
	Format models.TournamentFormat `json:"format"`
	Rounds []Round                 `json:"rounds,omitempty"`
	Flat   []MatchView             `json:"flat,omitempty"`
}

func matchView(m *models.Match) MatchView {
	return MatchView{
		Match:             m,
		Participant1Label: SideLabel(m.Participant1),
		Participant2Label: SideLabel(m.Participant2),
	}
}

// Group раскладывает матчи по правилам формата. Для round-robin возвращается
// плоский список той же длины и порядка, что и вход, независимо от номеров
// раундов. Для форматов на выбывание матчи разбиваются по раундам: раунды по
// возрастанию, внутри раунда сохраняется исходный относительный порядок;
// раунды без матчей отсутствуют.
func Group(format models.TournamentFormat, matches []*models.Match) View {
	if format == models.FormatRoundRobin {
		flat := make([]MatchView, 0, len(matches))
		for _, m := range matches {
			flat = append(flat, matchView(m))
		}
		return View{Format: format, Flat: flat}
	}

	byRound := make(map[int][]MatchView)
	for _, m := range matches {
		byRound[m.Round] = append(byRound[m.Round], matchView(m))
	}

	numbers := make([]int, 0, len(byRound))
	for n := range byRound {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	rounds := make([]Round, 0, len(numbers))
	for _, n := range numbers {
		rounds = append(rounds, Round{Number: n, Matches: byRound[n]})
	}
	return View{Format: format, Rounds: rounds}
}

// SideLabel возвращает отображаемое имя стороны матча; отсутствующий
// участник показывается как TBD — это правило отображения, а не ошибка данных.
func SideLabel(side *models.MatchSide) string {
	if side == nil {
		return TBD
	}
	return side.Username
}
