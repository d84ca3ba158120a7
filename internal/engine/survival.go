package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	survivalSize      = 15
	survivalFoodScore = 10
	survivalFoodCount = 2
)

type cell struct {
	X int `json:"x"` // row
	Y int `json:"y"` // column
}

var survivalDirs = map[string]cell{
	"up":    {X: -1, Y: 0},
	"down":  {X: 1, Y: 0},
	"left":  {X: 0, Y: -1},
	"right": {X: 0, Y: 1},
}

var oppositeDir = map[string]string{
	"up": "down", "down": "up", "left": "right", "right": "left",
}

type survivalSide struct {
	Snake     []cell `json:"snake"` // head first
	Direction string `json:"direction"`
	Food      []cell `json:"food"`
	Score     int    `json:"score"`
	Alive     bool   `json:"alive"`
}

type survivalState struct {
	PlayerA string          `json:"player_a"`
	PlayerB string          `json:"player_b"`
	Turn    string          `json:"turn_owner"`
	Turns   int             `json:"turn_count"`
	Sides   [2]survivalSide `json:"sides"`
	Over    bool            `json:"over"`
	Winner  string          `json:"winner"`
	Seed    int64           `json:"seed"`
	Draws   int64           `json:"rng_draws"`
}

// Survival is the grid-movement variant. Each player steers a snake on their
// own mirrored 15x15 grid; direction verbs set intent and the tick verb
// advances both snakes one cell. Collision kills; the turn cap resolves by
// score.
type Survival struct {
	s survivalState
	d *dice
}

func NewSurvival(playerA, playerB string, seed int64) *Survival {
	sv := &Survival{
		s: survivalState{PlayerA: playerA, PlayerB: playerB, Turn: playerA, Seed: seed},
		d: newDice(seed),
	}
	for i := range sv.s.Sides {
		side := &sv.s.Sides[i]
		side.Snake = []cell{{7, 2}, {7, 1}, {7, 0}}
		side.Direction = "right"
		side.Alive = true
		for f := 0; f < survivalFoodCount; f++ {
			sv.spawnFood(side)
		}
	}
	return sv
}

func RestoreSurvival(data []byte) (*Survival, error) {
	sv := &Survival{}
	if err := json.Unmarshal(data, &sv.s); err != nil {
		return nil, fmt.Errorf("restore survival state: %w", err)
	}
	sv.d = restoreDice(sv.s.Seed, sv.s.Draws)
	return sv, nil
}

func (sv *Survival) Kind() Kind        { return KindSurvival }
func (sv *Survival) TurnOwner() string { return sv.s.Turn }
func (sv *Survival) TurnCount() int    { return sv.s.Turns }

func (sv *Survival) Scores() (int, int) {
	return sv.s.Sides[0].Score, sv.s.Sides[1].Score
}

func (sv *Survival) MarshalState() ([]byte, error) {
	sv.s.Draws = sv.d.draws
	return json.Marshal(&sv.s)
}

func (sv *Survival) ApplyMove(actor, command string) (Result, error) {
	idx, err := sv.sideIndex(actor)
	if err != nil {
		return Result{}, err
	}
	if sv.s.Over {
		return Result{}, ErrIllegalMove
	}
	if actor != sv.s.Turn {
		return Result{}, ErrNotYourTurn
	}

	var msg string
	switch command {
	case "up", "down", "left", "right":
		side := &sv.s.Sides[idx]
		if command == oppositeDir[side.Direction] {
			// cannot reverse into yourself
			return Result{}, ErrIllegalMove
		}
		side.Direction = command
		msg = "direction changed to " + command
	case "tick":
		parts := make([]string, 0, 2)
		for i := range sv.s.Sides {
			if sv.s.Sides[i].Alive {
				parts = append(parts, sv.step(&sv.s.Sides[i]))
			}
		}
		msg = strings.Join(parts, " | ")
	default:
		return Result{}, ErrIllegalMove
	}

	sv.s.Turns++
	sv.checkOver()
	if sv.s.Over {
		return Result{Terminal: true, Winner: sv.s.Winner, Message: msg}, nil
	}
	sv.s.Turn = sv.other(sv.s.Turn)
	return Result{Message: msg}, nil
}

// step advances one snake a single cell in its current direction.
func (sv *Survival) step(side *survivalSide) string {
	d := survivalDirs[side.Direction]
	head := side.Snake[0]
	next := cell{X: head.X + d.X, Y: head.Y + d.Y}

	if next.X < 0 || next.X >= survivalSize || next.Y < 0 || next.Y >= survivalSize {
		side.Alive = false
		return "hit wall - eliminated"
	}
	for _, c := range side.Snake {
		if c == next {
			side.Alive = false
			return "hit self - eliminated"
		}
	}

	side.Snake = append([]cell{next}, side.Snake...)

	for i, f := range side.Food {
		if f == next {
			side.Food = append(side.Food[:i], side.Food[i+1:]...)
			side.Score += survivalFoodScore
			sv.spawnFood(side)
			return "ate food (+10 points)"
		}
	}
	side.Snake = side.Snake[:len(side.Snake)-1]
	return "moved"
}

func (sv *Survival) checkOver() {
	aliveA, aliveB := sv.s.Sides[0].Alive, sv.s.Sides[1].Alive
	switch {
	case !aliveA && !aliveB:
		sv.s.Over = true
		sv.s.Winner = scoreWinner(sv.s.PlayerA, sv.s.PlayerB, sv.s.Sides[0].Score, sv.s.Sides[1].Score)
	case !aliveA:
		sv.s.Over = true
		sv.s.Winner = sv.s.PlayerB
	case !aliveB:
		sv.s.Over = true
		sv.s.Winner = sv.s.PlayerA
	case sv.s.Turns >= SurvivalMaxTurns:
		sv.s.Over = true
		sv.s.Winner = scoreWinner(sv.s.PlayerA, sv.s.PlayerB, sv.s.Sides[0].Score, sv.s.Sides[1].Score)
	}
}

// spawnFood places one food item on a free cell. Bounded attempts keep the
// draw count predictable on a crowded board.
func (sv *Survival) spawnFood(side *survivalSide) {
	for attempts := 0; attempts < 50; attempts++ {
		c := cell{X: sv.d.intn(survivalSize), Y: sv.d.intn(survivalSize)}
		occupied := false
		for _, s := range side.Snake {
			if s == c {
				occupied = true
				break
			}
		}
		for _, f := range side.Food {
			if f == c {
				occupied = true
				break
			}
		}
		if !occupied {
			side.Food = append(side.Food, c)
			return
		}
	}
}

func (sv *Survival) sideIndex(actor string) (int, error) {
	switch actor {
	case sv.s.PlayerA:
		return 0, nil
	case sv.s.PlayerB:
		return 1, nil
	}
	return 0, ErrUnknownActor
}

func (sv *Survival) other(player string) string {
	if player == sv.s.PlayerA {
		return sv.s.PlayerB
	}
	return sv.s.PlayerA
}

func (sv *Survival) Snapshot(viewer string) map[string]interface{} {
	idx := 0
	if viewer == sv.s.PlayerB {
		idx = 1
	}
	mine, theirs := &sv.s.Sides[idx], &sv.s.Sides[1-idx]
	return map[string]interface{}{
		"kind":           string(KindSurvival),
		"turn_owner":     sv.s.Turn,
		"my_turn":        sv.s.Turn == viewer,
		"turn_count":     sv.s.Turns,
		"max_turns":      SurvivalMaxTurns,
		"my_score":       mine.Score,
		"opponent_score": theirs.Score,
		"my_alive":       mine.Alive,
		"opponent_alive": theirs.Alive,
		"my_length":      len(mine.Snake),
		"my_board":       renderSurvivalBoard(mine),
		"game_over":      sv.s.Over,
		"winner":         sv.s.Winner,
	}
}

func (sv *Survival) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "SURVIVAL  score %d - %d  turn %d/%d (%s to move)\n",
		sv.s.Sides[0].Score, sv.s.Sides[1].Score, sv.s.Turns, SurvivalMaxTurns, sv.s.Turn)
	b.WriteString(renderSurvivalBoard(&sv.s.Sides[0]))
	b.WriteString("\n")
	b.WriteString(renderSurvivalBoard(&sv.s.Sides[1]))
	return b.String()
}

func renderSurvivalBoard(side *survivalSide) string {
	grid := [survivalSize][survivalSize]byte{}
	for _, f := range side.Food {
		grid[f.X][f.Y] = '*'
	}
	for i, c := range side.Snake {
		if i == 0 {
			grid[c.X][c.Y] = '@'
		} else {
			grid[c.X][c.Y] = 'o'
		}
	}

	var b strings.Builder
	b.WriteString("┌" + strings.Repeat("─", survivalSize) + "┐\n")
	for r := 0; r < survivalSize; r++ {
		b.WriteString("│")
		for c := 0; c < survivalSize; c++ {
			if grid[r][c] == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteByte(grid[r][c])
			}
		}
		b.WriteString("│\n")
	}
	b.WriteString("└" + strings.Repeat("─", survivalSize) + "┘")
	return b.String()
}
