package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/wordrush/internal/common"
	"github.com/dmitrijs2005/wordrush/internal/logging"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) caller(ctx context.Context) (string, error) {
	email, ok := EmailFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return email, nil
}

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "user not found")
	}
	logging.LogError(ctx, s.logger, "game request failed", err)
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) GetWords(ctx context.Context, _ *GetWordsRequest) (*GetWordsResponse, error) {
	email, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	round, err := s.level.SelectWords(ctx, email)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &GetWordsResponse{
		Level:              round.Tier.String(),
		Words:              make([]Word, 0, len(round.Words)),
		TotalReadingTimeMs: round.TotalReadingTime.Milliseconds(),
	}
	for _, w := range round.Words {
		resp.Words = append(resp.Words, Word{Word: w.Text, Level: w.Tier.String(), ReadingTimeMs: w.ReadingTime.Milliseconds()})
	}
	return resp, nil
}

func (s *GRPCServer) SaveGame(ctx context.Context, req *SaveGameRequest) (*SaveGameResponse, error) {
	email, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	difficulty, err := models.ParseTier(req.Difficulty)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.WordsRead == nil {
		return nil, status.Error(codes.InvalidArgument, "wordsRead is required")
	}

	gs, err := s.level.SaveGame(ctx, email, req.WordsRead, difficulty)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "game saved", "email", email, "difficulty", difficulty.String(), "words", len(req.WordsRead))
	return &SaveGameResponse{ID: gs.ID}, nil
}

func (s *GRPCServer) GetProfile(ctx context.Context, _ *GetProfileRequest) (*GetProfileResponse, error) {
	email, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.level.Profile(ctx, email)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &GetProfileResponse{
		Level:  p.Tier.String(),
		Easy:   p.Counts.Easy,
		Medium: p.Counts.Medium,
		Hard:   p.Counts.Hard,
		Series: p.Series,
	}, nil
}
