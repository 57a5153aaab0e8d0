package chat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned for blank user turns.
var ErrEmptyInput = errors.New("message text is empty")

// Stage is a step in the scripted intake conversation.
type Stage string

const (
	StageName             Stage = "name"
	StageEmail            Stage = "email"
	StageProblemStatement Stage = "problem_statement"
)

// Conversation holds the three scalars the intake script captures.
// The zero value starts at StageName.
type Conversation struct {
	Stage     Stage
	UserName  string
	UserEmail string
}

// Turn is the outcome of feeding one user message to a Conversation.
type Turn struct {
	// Stage is the stage the message was received in.
	Stage Stage
	// Prompt is what gets forwarded to the language model.
	Prompt string
}

// Accept consumes one user message and advances the stage. Blank input
// leaves the conversation untouched.
func (c *Conversation) Accept(text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyInput
	}

	stage := c.current()
	turn := Turn{Stage: stage}

	switch stage {
	case StageName:
		c.UserName = text
		c.Stage = StageEmail
		turn.Prompt = fmt.Sprintf("The user's name is %s. Ask for their email in a fun way.", text)
	case StageEmail:
		c.UserEmail = text
		c.Stage = StageProblemStatement
		turn.Prompt = fmt.Sprintf("The user's email is %s. Ask for their problem statement.", text)
	default:
		c.Stage = StageProblemStatement
		turn.Prompt = text
	}

	return turn, nil
}

func (c *Conversation) current() Stage {
	switch c.Stage {
	case StageEmail, StageProblemStatement:
		return c.Stage
	default:
		return StageName
	}
}
