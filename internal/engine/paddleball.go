package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	paddleFieldWidth  = 20
	paddleFieldHeight = 10
	paddleHeight      = 3
	paddleWinScore    = 11
)

type paddleBallState struct {
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	Turn    string `json:"turn_owner"`
	Turns   int    `json:"turn_count"`

	PaddleA int `json:"paddle_a"` // top row of the left paddle
	PaddleB int `json:"paddle_b"`
	ScoreA  int `json:"score_a"`
	ScoreB  int `json:"score_b"`

	BallX int `json:"ball_x"` // column
	BallY int `json:"ball_y"` // row
	BallD int `json:"ball_dx"`
	BallE int `json:"ball_dy"`

	Over   bool   `json:"over"`
	Winner string `json:"winner"`
	Seed   int64  `json:"seed"`
	Draws  int64  `json:"rng_draws"`
}

// PaddleBall is the rally variant. Players move paddles on opposite edges of
// a 20x10 field; the tick verb advances the ball. First to 11 points wins,
// and the turn cap resolves by score.
type PaddleBall struct {
	s paddleBallState
	d *dice
}

func NewPaddleBall(playerA, playerB string, seed int64) *PaddleBall {
	pb := &PaddleBall{
		s: paddleBallState{
			PlayerA: playerA,
			PlayerB: playerB,
			Turn:    playerA,
			PaddleA: paddleFieldHeight/2 - 1,
			PaddleB: paddleFieldHeight/2 - 1,
			Seed:    seed,
		},
		d: newDice(seed),
	}
	pb.serveBall()
	return pb
}

func RestorePaddleBall(data []byte) (*PaddleBall, error) {
	pb := &PaddleBall{}
	if err := json.Unmarshal(data, &pb.s); err != nil {
		return nil, fmt.Errorf("restore paddleball state: %w", err)
	}
	pb.d = restoreDice(pb.s.Seed, pb.s.Draws)
	return pb, nil
}

func (pb *PaddleBall) Kind() Kind        { return KindPaddleBall }
func (pb *PaddleBall) TurnOwner() string { return pb.s.Turn }
func (pb *PaddleBall) TurnCount() int    { return pb.s.Turns }

func (pb *PaddleBall) Scores() (int, int) { return pb.s.ScoreA, pb.s.ScoreB }

func (pb *PaddleBall) MarshalState() ([]byte, error) {
	pb.s.Draws = pb.d.draws
	return json.Marshal(&pb.s)
}

func (pb *PaddleBall) ApplyMove(actor, command string) (Result, error) {
	if actor != pb.s.PlayerA && actor != pb.s.PlayerB {
		return Result{}, ErrUnknownActor
	}
	if pb.s.Over {
		return Result{}, ErrIllegalMove
	}
	if actor != pb.s.Turn {
		return Result{}, ErrNotYourTurn
	}

	var msg string
	switch command {
	case "up", "down":
		paddle := &pb.s.PaddleA
		if actor == pb.s.PlayerB {
			paddle = &pb.s.PaddleB
		}
		delta := -1
		if command == "down" {
			delta = 1
		}
		next := *paddle + delta
		if next < 0 || next+paddleHeight > paddleFieldHeight {
			return Result{}, ErrIllegalMove
		}
		*paddle = next
		msg = "paddle moved " + command
	case "tick":
		msg = pb.stepBall()
	default:
		return Result{}, ErrIllegalMove
	}

	pb.s.Turns++
	pb.checkOver()
	if pb.s.Over {
		return Result{Terminal: true, Winner: pb.s.Winner, Message: msg}, nil
	}
	pb.s.Turn = pb.other(pb.s.Turn)
	return Result{Message: msg}, nil
}

// stepBall advances the ball one cell and handles wall bounces, paddle
// deflections and scoring.
func (pb *PaddleBall) stepBall() string {
	nx := pb.s.BallX + pb.s.BallD
	ny := pb.s.BallY + pb.s.BallE

	if ny < 0 || ny >= paddleFieldHeight {
		pb.s.BallE = -pb.s.BallE
		ny = pb.s.BallY + pb.s.BallE
	}

	// left paddle sits at column 0, right paddle at the far column
	if nx <= 0 {
		if ny >= pb.s.PaddleA && ny < pb.s.PaddleA+paddleHeight {
			pb.s.BallD = 1
			pb.s.BallE = pb.deflect(ny, pb.s.PaddleA)
			pb.s.BallX, pb.s.BallY = 1, ny
			return "ball returned"
		}
		pb.s.ScoreB++
		pb.serveBall()
		return "point scored"
	}
	if nx >= paddleFieldWidth-1 {
		if ny >= pb.s.PaddleB && ny < pb.s.PaddleB+paddleHeight {
			pb.s.BallD = -1
			pb.s.BallE = pb.deflect(ny, pb.s.PaddleB)
			pb.s.BallX, pb.s.BallY = paddleFieldWidth-2, ny
			return "ball returned"
		}
		pb.s.ScoreA++
		pb.serveBall()
		return "point scored"
	}

	pb.s.BallX, pb.s.BallY = nx, ny
	return "ball in play"
}

// deflect picks the vertical component from where the ball met the paddle:
// top third sends it up, bottom third down, the middle flattens it out.
func (pb *PaddleBall) deflect(ballRow, paddleTop int) int {
	switch ballRow - paddleTop {
	case 0:
		return -1
	case paddleHeight - 1:
		return 1
	}
	return 0
}

func (pb *PaddleBall) serveBall() {
	pb.s.BallX = paddleFieldWidth / 2
	pb.s.BallY = paddleFieldHeight / 2
	pb.s.BallD = pb.d.pick(-1, 1)
	pb.s.BallE = pb.d.pick(-1, 0, 1)
}

func (pb *PaddleBall) checkOver() {
	switch {
	case pb.s.ScoreA >= paddleWinScore:
		pb.s.Over = true
		pb.s.Winner = pb.s.PlayerA
	case pb.s.ScoreB >= paddleWinScore:
		pb.s.Over = true
		pb.s.Winner = pb.s.PlayerB
	case pb.s.Turns >= PaddleBallMaxTurns:
		pb.s.Over = true
		pb.s.Winner = scoreWinner(pb.s.PlayerA, pb.s.PlayerB, pb.s.ScoreA, pb.s.ScoreB)
	}
}

func (pb *PaddleBall) other(player string) string {
	if player == pb.s.PlayerA {
		return pb.s.PlayerB
	}
	return pb.s.PlayerA
}

func (pb *PaddleBall) Snapshot(viewer string) map[string]interface{} {
	myScore, oppScore := pb.s.ScoreA, pb.s.ScoreB
	if viewer == pb.s.PlayerB {
		myScore, oppScore = oppScore, myScore
	}
	return map[string]interface{}{
		"kind":           string(KindPaddleBall),
		"turn_owner":     pb.s.Turn,
		"my_turn":        pb.s.Turn == viewer,
		"turn_count":     pb.s.Turns,
		"max_turns":      PaddleBallMaxTurns,
		"my_score":       myScore,
		"opponent_score": oppScore,
		"target_score":   paddleWinScore,
		"board":          pb.renderField(),
		"game_over":      pb.s.Over,
		"winner":         pb.s.Winner,
	}
}

func (pb *PaddleBall) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "PADDLEBALL  score %d - %d  turn %d/%d (%s to move)\n",
		pb.s.ScoreA, pb.s.ScoreB, pb.s.Turns, PaddleBallMaxTurns, pb.s.Turn)
	b.WriteString(pb.renderField())
	return b.String()
}

func (pb *PaddleBall) renderField() string {
	var b strings.Builder
	b.WriteString("┌" + strings.Repeat("─", paddleFieldWidth) + "┐\n")
	for r := 0; r < paddleFieldHeight; r++ {
		b.WriteString("│")
		for c := 0; c < paddleFieldWidth; c++ {
			switch {
			case c == pb.s.BallX && r == pb.s.BallY:
				b.WriteString("●")
			case c == 0 && r >= pb.s.PaddleA && r < pb.s.PaddleA+paddleHeight:
				b.WriteString("▌")
			case c == paddleFieldWidth-1 && r >= pb.s.PaddleB && r < pb.s.PaddleB+paddleHeight:
				b.WriteString("▐")
			default:
				b.WriteString(" ")
			}
		}
		b.WriteString("│\n")
	}
	b.WriteString("└" + strings.Repeat("─", paddleFieldWidth) + "┘")
	return b.String()
}
