package brackets

import (
	"testing"

	"github.com/google/uuid"
	"github.com/playgrid/arena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(round, number int) *models.Match {
	return &models.Match{
		ID:          uuid.New(),
		Round:       round,
		MatchNumber: number,
		Status:      models.MatchStatusPending,
	}
}

func TestGroupRoundRobinFlat(t *testing.T) {
	matches := []*models.Match{match(2, 1), match(1, 2), match(3, 3)}

	view := Group(models.FormatRoundRobin, matches)

	require.Len(t, view.Flat, 3)
	assert.Empty(t, view.Rounds)
	// Порядок входа сохраняется независимо от номеров раундов.
	assert.Equal(t, matches[0].ID, view.Flat[0].ID)
	assert.Equal(t, matches[1].ID, view.Flat[1].ID)
	assert.Equal(t, matches[2].ID, view.Flat[2].ID)
}

func TestGroupEliminationByRound(t *testing.T) {
	r2a := match(2, 1)
	r1a := match(1, 1)
	r1b := match(1, 2)
	r3a := match(3, 1)

	view := Group(models.FormatSingleElimination, []*models.Match{r2a, r1a, r1b, r3a})

	require.Len(t, view.Rounds, 3)
	assert.Empty(t, view.Flat)

	assert.Equal(t, 1, view.Rounds[0].Number)
	assert.Equal(t, 2, view.Rounds[1].Number)
	assert.Equal(t, 3, view.Rounds[2].Number)

	// Внутри раунда сохраняется исходный относительный порядок.
	require.Len(t, view.Rounds[0].Matches, 2)
	assert.Equal(t, r1a.ID, view.Rounds[0].Matches[0].ID)
	assert.Equal(t, r1b.ID, view.Rounds[0].Matches[1].ID)
}

func TestGroupSkipsEmptyRounds(t *testing.T) {
	view := Group(models.FormatDoubleElimination, []*models.Match{match(1, 1), match(4, 1)})

	require.Len(t, view.Rounds, 2)
	assert.Equal(t, 1, view.Rounds[0].Number)
	assert.Equal(t, 4, view.Rounds[1].Number)
}

func TestGroupEmptyInput(t *testing.T) {
	view := Group(models.FormatSingleElimination, nil)
	assert.Empty(t, view.Rounds)

	view = Group(models.FormatRoundRobin, nil)
	assert.Empty(t, view.Flat)
}

func TestSideLabel(t *testing.T) {
	assert.Equal(t, TBD, SideLabel(nil))
	assert.Equal(t, "shadow", SideLabel(&models.MatchSide{Username: "shadow"}))
}

func TestGroupLabelsSides(t *testing.T) {
	decided := match(1, 1)
	decided.Participant1 = &models.MatchSide{ID: uuid.New(), Username: "shadow"}
	decided.Participant2 = &models.MatchSide{ID: uuid.New(), Username: "blaze"}
	undecided := match(2, 1)

	view := Group(models.FormatSingleElimination, []*models.Match{decided, undecided})

	require.Len(t, view.Rounds, 2)
	assert.Equal(t, "shadow", view.Rounds[0].Matches[0].Participant1Label)
	assert.Equal(t, "blaze", view.Rounds[0].Matches[0].Participant2Label)
	// Неопределённые стороны подписываются как TBD.
	assert.Equal(t, TBD, view.Rounds[1].Matches[0].Participant1Label)
	assert.Equal(t, TBD, view.Rounds[1].Matches[0].Participant2Label)
}
