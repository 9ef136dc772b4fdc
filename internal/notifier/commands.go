package notifier

import (
	"context"
	"strings"

	"FeeAllocator/internal/model"
)

// Controller is the part of the engine reachable from chat.
type Controller interface {
	ClaimAndDistribute(ctx context.Context) model.CycleResult
	FlushAccumulated(ctx context.Context) model.FlushResult
	Status() model.Status
}

const helpText = "Commands:\n• /status\n• /cycle\n• /flush"

// NewCommandHandler routes chat commands to c.
func NewCommandHandler(c Controller, f Formatter) CommandHandler {
	return func(ctx context.Context, command string) string {
		cmd := strings.Fields(command)
		if len(cmd) == 0 {
			return helpText
		}
		// "/status@my_bot" in group chats
		name, _, _ := strings.Cut(strings.ToLower(cmd[0]), "@")
		switch name {
		case "/status":
			return f.Status(c.Status())
		case "/cycle":
			return f.Cycle(c.ClaimAndDistribute(ctx))
		case "/flush":
			return f.Flush(c.FlushAccumulated(ctx))
		default:
			return helpText
		}
	}
}
