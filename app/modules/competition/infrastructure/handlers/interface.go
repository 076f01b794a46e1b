package competitionhandlers

import (
	"github.com/ThreeDotsLabs/watermill/message"
)

// Handlers interface defines the methods that a set of competition handlers should implement.
type Handlers interface {
	HandleCompetitionCompleted(msg *message.Message) ([]*message.Message, error)
}
