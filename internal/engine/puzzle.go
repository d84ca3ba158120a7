package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	puzzleCols = 10
	puzzleRows = 20
)

// Tetromino rotation tables. Each shape is a 4x4 grid; '#' marks a filled
// cell. Rotation index wraps modulo the number of listed rotations.
var tetrominoes = [7][][4]string{
	{ // I
		{"....", "####", "....", "...."},
		{"..#.", "..#.", "..#.", "..#."},
		{"....", "####", "....", "...."},
		{"..#.", "..#.", "..#.", "..#."},
	},
	{ // O
		{"....", ".##.", ".##.", "...."},
	},
	{ // T
		{"....", ".#..", "###.", "...."},
		{"....", ".#..", ".##.", ".#.."},
		{"....", "....", "###.", ".#.."},
		{"....", ".#..", "##..", ".#.."},
	},
	{ // S
		{"....", ".##.", "##..", "...."},
		{"....", ".#..", ".##.", "..#."},
	},
	{ // Z
		{"....", "##..", ".##.", "...."},
		{"....", "..#.", ".##.", ".#.."},
	},
	{ // J
		{"....", ".#..", ".#..", "##.."},
		{"....", "....", "#...", "###."},
		{"....", ".##.", ".#..", ".#.."},
		{"....", "....", "###.", "..#."},
	},
	{ // L
		{"....", ".#..", ".#..", ".##."},
		{"....", "....", "###.", "#..."},
		{"....", "##..", ".#..", ".#.."},
		{"....", "....", "..#.", "###."},
	},
}

var lineScores = map[int]int{1: 40, 2: 100, 3: 300, 4: 1200}

type puzzlePiece struct {
	Type int `json:"type"`
	Rot  int `json:"rot"`
	Row  int `json:"row"`
	Col  int `json:"col"`
}

type puzzleSide struct {
	Grid    [puzzleRows][puzzleCols]bool `json:"grid"`
	Current puzzlePiece                  `json:"current"`
	Next    int                          `json:"next"`
	Score   int                          `json:"score"`
	Lines   int                          `json:"lines"`
	Level   int                          `json:"level"`
	Failed  bool                         `json:"failed"`
}

type puzzleState struct {
	PlayerA       string        `json:"player_a"`
	PlayerB       string        `json:"player_b"`
	Turn          string        `json:"turn_owner"`
	Turns         int           `json:"turn_count"`
	Sides         [2]puzzleSide `json:"sides"`
	Over          bool          `json:"over"`
	Winner        string        `json:"winner"`
	PendingTopOut bool          `json:"pending_top_out"`
	Seed          int64         `json:"seed"`
	Draws         int64         `json:"rng_draws"`
}

// Puzzle is the falling-block variant. Both players stack pieces on their own
// 10x20 board in lockstep rounds (challenger's half first); the first board to
// top out loses, and a double top-out inside one round is a tie.
type Puzzle struct {
	s puzzleState
	d *dice
}

func NewPuzzle(playerA, playerB string, seed int64) *Puzzle {
	p := &Puzzle{
		s: puzzleState{PlayerA: playerA, PlayerB: playerB, Turn: playerA, Seed: seed},
		d: newDice(seed),
	}
	for i := range p.s.Sides {
		side := &p.s.Sides[i]
		side.Level = 1
		side.Current = p.spawnPiece()
		side.Next = p.d.intn(len(tetrominoes))
	}
	return p
}

func RestorePuzzle(data []byte) (*Puzzle, error) {
	p := &Puzzle{}
	if err := json.Unmarshal(data, &p.s); err != nil {
		return nil, fmt.Errorf("restore puzzle state: %w", err)
	}
	p.d = restoreDice(p.s.Seed, p.s.Draws)
	return p, nil
}

func (p *Puzzle) Kind() Kind        { return KindPuzzle }
func (p *Puzzle) TurnOwner() string { return p.s.Turn }
func (p *Puzzle) TurnCount() int    { return p.s.Turns }

func (p *Puzzle) Scores() (int, int) {
	return p.s.Sides[0].Score, p.s.Sides[1].Score
}

func (p *Puzzle) MarshalState() ([]byte, error) {
	p.s.Draws = p.d.draws
	return json.Marshal(&p.s)
}

func (p *Puzzle) ApplyMove(actor, command string) (Result, error) {
	idx, err := p.sideIndex(actor)
	if err != nil {
		return Result{}, err
	}
	if p.s.Over {
		return Result{}, ErrIllegalMove
	}
	if actor != p.s.Turn {
		return Result{}, ErrNotYourTurn
	}

	side := &p.s.Sides[idx]
	msg := "piece moved"
	switch command {
	case "left", "right", "rotate":
		np := side.Current
		switch command {
		case "left":
			np.Col--
		case "right":
			np.Col++
		case "rotate":
			np.Rot = (np.Rot + 1) % len(tetrominoes[np.Type])
		}
		if !pieceFits(&side.Grid, np) {
			return Result{}, ErrIllegalMove
		}
		side.Current = np
	case "down":
		np := side.Current
		np.Row++
		if pieceFits(&side.Grid, np) {
			side.Current = np
		} else {
			msg = p.lockPiece(side)
		}
	case "drop":
		for {
			np := side.Current
			np.Row++
			if !pieceFits(&side.Grid, np) {
				break
			}
			side.Current = np
		}
		msg = p.lockPiece(side)
	default:
		return Result{}, ErrIllegalMove
	}

	return p.advance(idx, msg), nil
}

// advance performs turn accounting and the lockstep terminal check after a
// successfully applied move by side mover.
func (p *Puzzle) advance(mover int, msg string) Result {
	p.s.Turns++
	side := &p.s.Sides[mover]

	if side.Failed {
		if mover == 0 {
			// Challenger topped out on the first half of the round; the
			// opponent still plays the matching half before resolution.
			p.s.PendingTopOut = true
		} else {
			p.s.Over = true
			if p.s.PendingTopOut {
				p.s.Winner = "" // both boards topped out in the same round
			} else {
				p.s.Winner = p.s.PlayerA
			}
		}
	} else if mover == 1 && p.s.PendingTopOut {
		// Opponent survived its half of the round the challenger failed in.
		p.s.Over = true
		p.s.Winner = p.s.PlayerB
	}

	if !p.s.Over && p.s.Turns >= PuzzleMaxTurns {
		p.s.Over = true
		p.s.Winner = scoreWinner(p.s.PlayerA, p.s.PlayerB, p.s.Sides[0].Score, p.s.Sides[1].Score)
	}

	if p.s.Over {
		return Result{Terminal: true, Winner: p.s.Winner, Message: msg}
	}
	p.s.Turn = p.other(p.s.Turn)
	return Result{Message: msg}
}

// lockPiece places the current piece, clears lines, scores, and spawns the
// next piece. A failed spawn marks the side as topped out.
func (p *Puzzle) lockPiece(side *puzzleSide) string {
	shape := tetrominoes[side.Current.Type][side.Current.Rot]
	for i, line := range shape {
		for j := 0; j < 4; j++ {
			if line[j] != '#' {
				continue
			}
			r, c := side.Current.Row+i, side.Current.Col+j
			if r >= 0 && r < puzzleRows && c >= 0 && c < puzzleCols {
				side.Grid[r][c] = true
			}
		}
	}

	cleared := clearFullRows(&side.Grid)
	gained := 0
	if cleared > 0 {
		gained = lineScores[cleared] * (side.Level + 1)
		side.Score += gained
		side.Lines += cleared
		side.Level = side.Lines/10 + 1
	}

	side.Current = puzzlePiece{Type: side.Next}
	side.Current.Row, side.Current.Col = 0, 4
	side.Next = p.d.intn(len(tetrominoes))
	if !pieceFits(&side.Grid, side.Current) {
		side.Failed = true
		return "stack reached the top"
	}
	return fmt.Sprintf("piece placed, %d lines cleared, %d points gained", cleared, gained)
}

func (p *Puzzle) spawnPiece() puzzlePiece {
	return puzzlePiece{Type: p.d.intn(len(tetrominoes)), Row: 0, Col: 4}
}

func (p *Puzzle) sideIndex(actor string) (int, error) {
	switch actor {
	case p.s.PlayerA:
		return 0, nil
	case p.s.PlayerB:
		return 1, nil
	}
	return 0, ErrUnknownActor
}

func (p *Puzzle) other(player string) string {
	if player == p.s.PlayerA {
		return p.s.PlayerB
	}
	return p.s.PlayerA
}

func (p *Puzzle) Snapshot(viewer string) map[string]interface{} {
	idx := 0
	if viewer == p.s.PlayerB {
		idx = 1
	}
	mine, theirs := &p.s.Sides[idx], &p.s.Sides[1-idx]
	return map[string]interface{}{
		"kind":           string(KindPuzzle),
		"turn_owner":     p.s.Turn,
		"my_turn":        p.s.Turn == viewer,
		"turn_count":     p.s.Turns,
		"my_score":       mine.Score,
		"opponent_score": theirs.Score,
		"my_lines":       mine.Lines,
		"my_level":       mine.Level,
		"my_board":       renderPuzzleBoard(mine),
		"game_over":      p.s.Over,
		"winner":         p.s.Winner,
	}
}

func (p *Puzzle) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "PUZZLE  score %d - %d  turn %d (%s to move)\n",
		p.s.Sides[0].Score, p.s.Sides[1].Score, p.s.Turns, p.s.Turn)
	b.WriteString(renderPuzzleBoard(&p.s.Sides[0]))
	b.WriteString("\n")
	b.WriteString(renderPuzzleBoard(&p.s.Sides[1]))
	return b.String()
}

func renderPuzzleBoard(side *puzzleSide) string {
	var b strings.Builder
	b.WriteString("┌" + strings.Repeat("─", puzzleCols) + "┐\n")
	shape := tetrominoes[side.Current.Type][side.Current.Rot]
	for r := 0; r < puzzleRows; r++ {
		b.WriteString("│")
		for c := 0; c < puzzleCols; c++ {
			ch := " "
			if side.Grid[r][c] {
				ch = "█"
			} else if !side.Failed && cellInPiece(side.Current, shape, r, c) {
				ch = "●"
			}
			b.WriteString(ch)
		}
		b.WriteString("│\n")
	}
	b.WriteString("└" + strings.Repeat("─", puzzleCols) + "┘")
	return b.String()
}

func cellInPiece(pc puzzlePiece, shape [4]string, r, c int) bool {
	i, j := r-pc.Row, c-pc.Col
	return i >= 0 && i < 4 && j >= 0 && j < 4 && shape[i][j] == '#'
}

func pieceFits(grid *[puzzleRows][puzzleCols]bool, pc puzzlePiece) bool {
	shape := tetrominoes[pc.Type][pc.Rot]
	for i, line := range shape {
		for j := 0; j < 4; j++ {
			if line[j] != '#' {
				continue
			}
			r, c := pc.Row+i, pc.Col+j
			if r < 0 || r >= puzzleRows || c < 0 || c >= puzzleCols {
				return false
			}
			if grid[r][c] {
				return false
			}
		}
	}
	return true
}

func clearFullRows(grid *[puzzleRows][puzzleCols]bool) int {
	cleared := 0
	dst := puzzleRows - 1
	for src := puzzleRows - 1; src >= 0; src-- {
		full := true
		for c := 0; c < puzzleCols; c++ {
			if !grid[src][c] {
				full = false
				break
			}
		}
		if full {
			cleared++
			continue
		}
		grid[dst] = grid[src]
		dst--
	}
	for ; dst >= 0; dst-- {
		grid[dst] = [puzzleCols]bool{}
	}
	return cleared
}

// scoreWinner resolves a turn-cap finish: higher score wins, equal is a tie.
func scoreWinner(playerA, playerB string, scoreA, scoreB int) string {
	if scoreA > scoreB {
		return playerA
	}
	if scoreB > scoreA {
		return playerB
	}
	return ""
}
