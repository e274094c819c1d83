package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	inviteUsecase "github.com/capsulen/capsulen/internal/invite/usecase"
)

// RunCreateInvite generates a single-use invite code and prints it.
// The code is handed out of band to the person being invited; registration
// consumes it atomically.
func RunCreateInvite(
	ctx context.Context,
	inviteUseCase inviteUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	invite, err := inviteUseCase.CreateInvite(ctx)
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}

	logger.Info("invite created", slog.Int64("id", invite.ID))

	switch format {
	case "json":
		output := map[string]string{"code": invite.Code}
		encoder := json.NewEncoder(writer)
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
	case "text":
		fmt.Fprintf(writer, "Invite code: %s\n", invite.Code)
	default:
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}

	return nil
}
