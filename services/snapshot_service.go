package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/steamcup/tournament-engine/storage"
)

type SnapshotService interface {
	// ArchiveTournament serializes the full tournament state and
	// uploads it to the archive bucket. Returns the object key.
	ArchiveTournament(ctx context.Context, tournamentID int) (string, error)
}

type snapshotService struct {
	brackets BracketService
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewSnapshotService(brackets BracketService, uploader storage.FileUploader, logger *slog.Logger) SnapshotService {
	return &snapshotService{brackets: brackets, uploader: uploader, logger: logger}
}

type tournamentSnapshot struct {
	ArchivedAt time.Time   `json:"archived_at"`
	Tournament interface{} `json:"tournament"`
}

func (s *snapshotService) ArchiveTournament(ctx context.Context, tournamentID int) (string, error) {
	full, err := s.brackets.GetFullTournamentData(ctx, tournamentID)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(tournamentSnapshot{
		ArchivedAt: time.Now().UTC(),
		Tournament: full,
	})
	if err != nil {
		return "", fmt.Errorf("failed to serialize tournament %d snapshot: %w", tournamentID, err)
	}

	key := fmt.Sprintf("snapshots/tournament_%d_%s.json", tournamentID, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	s.logger.Info("tournament snapshot uploaded",
		slog.Int("tournament_id", tournamentID),
		slog.String("location", result.Location))
	return result.Key, nil
}
