package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vbonduro/plantasking/internal/analysis"
	"github.com/vbonduro/plantasking/internal/conversation"
	"github.com/vbonduro/plantasking/internal/domain"
	"github.com/vbonduro/plantasking/internal/persona"
	"github.com/vbonduro/plantasking/internal/photostore"
)

var ErrPlantNotFound = errors.New("plant not found")

// plantRepository is the subset of store.PlantStore that PlantService requires.
type plantRepository interface {
	Create(ctx context.Context, storageKey, mimeType string) (*domain.Plant, error)
	GetByID(ctx context.Context, id int64) (*domain.Plant, error)
	List(ctx context.Context) ([]*domain.Plant, error)
	Delete(ctx context.Context, id int64) error
}

// analysisRepository is the subset of store.AnalysisStore that PlantService requires.
type analysisRepository interface {
	Create(ctx context.Context, plantID int64, mood domain.Mood, recommendation, failureKind string) (*domain.Analysis, error)
	LatestByPlantID(ctx context.Context, plantID int64) (*domain.Analysis, error)
	ListByPlantID(ctx context.Context, plantID int64) ([]*domain.Analysis, error)
}

// analyzer is the subset of analysis.Orchestrator that PlantService requires.
type analyzer interface {
	Run(ctx context.Context, img domain.Image) analysis.Result
}

// conversationStarter is the subset of conversation.Manager that PlantService requires.
type conversationStarter interface {
	Start(image *domain.Image, p persona.Persona) *conversation.Session
}

type PlantService struct {
	plantStore    plantRepository
	analysisStore analysisRepository
	analyzer      analyzer
	photoStg      photostore.PhotoStore
	personas      *persona.Catalog
	conversations conversationStarter
	logger        *slog.Logger
}

func NewPlantService(
	plantStore plantRepository,
	analysisStore analysisRepository,
	analyzer analyzer,
	photoStg photostore.PhotoStore,
	personas *persona.Catalog,
	conversations conversationStarter,
	logger *slog.Logger,
) *PlantService {
	return &PlantService{
		plantStore:    plantStore,
		analysisStore: analysisStore,
		analyzer:      analyzer,
		photoStg:      photoStg,
		personas:      personas,
		conversations: conversations,
		logger:        logger,
	}
}

// PlantSummary bundles a plant with its most recent analysis, which is nil
// for a plant that was never analysed.
type PlantSummary struct {
	*domain.Plant
	Latest *domain.Analysis `json:"latest_analysis"`
}

// PlantDetail bundles a plant with its full analysis history, newest first.
type PlantDetail struct {
	*domain.Plant
	Analyses []*domain.Analysis `json:"analyses"`
}

// CapturePlant stores a newly captured photo, analyses it and records the
// result. A failed analysis is still recorded: the returned Analysis then
// carries the failure kind and a user-facing recommendation.
func (s *PlantService) CapturePlant(ctx context.Context, imageData []byte, mimeType string) (*domain.Plant, *domain.Analysis, error) {
	s.logger.Info("capture plant started", "mime_type", mimeType, "bytes", len(imageData))

	storageKey, err := s.photoStg.Save(ctx, "plant", mimeType, bytes.NewReader(imageData))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to save photo: %w", err)
	}
	s.logger.Debug("photo saved", "storage_key", storageKey)

	plant, err := s.plantStore.Create(ctx, storageKey, mimeType)
	if err != nil {
		if stgErr := s.photoStg.Delete(ctx, storageKey); stgErr != nil {
			s.logger.Error("failed to roll back photo file", "storage_key", storageKey, "error", stgErr)
		}
		return nil, nil, fmt.Errorf("failed to create plant record: %w", err)
	}

	a, err := s.analyze(ctx, plant.ID, domain.Image{Data: imageData, MimeType: mimeType})
	if err != nil {
		return plant, nil, err
	}

	s.logger.Info("capture plant complete", "plant_id", plant.ID, "mood", a.Mood)
	return plant, a, nil
}

// Reanalyze runs the mood analysis again on the plant's stored photo.
func (s *PlantService) Reanalyze(ctx context.Context, plantID int64) (*domain.Analysis, error) {
	plant, err := s.getPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}

	img, err := photostore.LoadImage(ctx, s.photoStg, plant.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load photo: %w", err)
	}

	return s.analyze(ctx, plant.ID, *img)
}

func (s *PlantService) analyze(ctx context.Context, plantID int64, img domain.Image) (*domain.Analysis, error) {
	s.logger.Info("mood analysis started", "plant_id", plantID)
	res := s.analyzer.Run(ctx, img)

	a, err := s.analysisStore.Create(ctx, plantID, res.Mood, res.Recommendation, string(res.Failure))
	if err != nil {
		return nil, fmt.Errorf("failed to record analysis: %w", err)
	}
	s.logger.Info("mood analysis recorded", "plant_id", plantID, "analysis_id", a.ID, "mood", a.Mood, "failure", a.FailureKind)
	return a, nil
}

func (s *PlantService) ListPlants(ctx context.Context) ([]*PlantSummary, error) {
	plants, err := s.plantStore.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]*PlantSummary, 0, len(plants))
	for _, plant := range plants {
		latest, err := s.analysisStore.LatestByPlantID(ctx, plant.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get analysis for plant %d: %w", plant.ID, err)
		}
		summaries = append(summaries, &PlantSummary{Plant: plant, Latest: latest})
	}
	return summaries, nil
}

func (s *PlantService) GetPlant(ctx context.Context, plantID int64) (*PlantDetail, error) {
	plant, err := s.getPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}

	analyses, err := s.analysisStore.ListByPlantID(ctx, plantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	if analyses == nil {
		analyses = []*domain.Analysis{}
	}
	return &PlantDetail{Plant: plant, Analyses: analyses}, nil
}

// Photo opens the plant's stored photo. The caller must close the reader.
func (s *PlantService) Photo(ctx context.Context, plantID int64) (io.ReadCloser, string, error) {
	plant, err := s.getPlant(ctx, plantID)
	if err != nil {
		return nil, "", err
	}
	return s.photoStg.Get(ctx, plant.StorageKey)
}

// DeletePlant removes the plant, its analyses and its photo. A photo that
// cannot be removed is logged and left behind.
func (s *PlantService) DeletePlant(ctx context.Context, plantID int64) error {
	plant, err := s.getPlant(ctx, plantID)
	if err != nil {
		return err
	}

	if err := s.plantStore.Delete(ctx, plantID); err != nil {
		return fmt.Errorf("failed to delete plant record: %w", err)
	}

	if err := s.photoStg.Delete(ctx, plant.StorageKey); err != nil {
		s.logger.Error("failed to delete photo file", "storage_key", plant.StorageKey, "error", err)
	}
	return nil
}

// StartConversation opens a chat grounded in the plant's photo, voiced by the
// persona of its latest mood. plantID 0 starts a conversation with no image;
// so does a plant whose photo is gone. Every turn of such a conversation is
// answered with the missing-image notice.
func (s *PlantService) StartConversation(ctx context.Context, plantID int64) (*conversation.Session, error) {
	if plantID == 0 {
		return s.conversations.Start(nil, s.personas.ForMood(domain.MoodUnknown)), nil
	}

	plant, err := s.getPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}

	img, err := photostore.LoadImage(ctx, s.photoStg, plant.StorageKey)
	if errors.Is(err, photostore.ErrNotFound) {
		s.logger.Warn("plant photo missing, starting conversation without image", "plant_id", plantID)
		img = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load photo: %w", err)
	}

	mood := domain.MoodUnknown
	latest, err := s.analysisStore.LatestByPlantID(ctx, plantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}
	if latest != nil {
		mood = latest.Mood
	}

	return s.conversations.Start(img, s.personas.ForMood(mood)), nil
}

func (s *PlantService) getPlant(ctx context.Context, plantID int64) (*domain.Plant, error) {
	plant, err := s.plantStore.GetByID(ctx, plantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plant: %w", err)
	}
	if plant == nil {
		return nil, fmt.Errorf("plant %d: %w", plantID, ErrPlantNotFound)
	}
	return plant, nil
}
