package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	cacheport "github.com/payneio/semanticworkbench/internal/infrastructure/cache/port"
	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

const assistantDirectoryTTL = 30 * time.Second

// ListAssistantsUseCase serves the assistant directory with a cache-aside
// read through Redis. Cache failures fall back to the repository; the
// directory must stay available even when the cache is not.
type ListAssistantsUseCase struct {
	Directory repository.AssistantDirectory
	Cache     cacheport.Cache
}

func NewListAssistantsUseCase(directory repository.AssistantDirectory, cache cacheport.Cache) *ListAssistantsUseCase {
	return &ListAssistantsUseCase{Directory: directory, Cache: cache}
}

func (uc *ListAssistantsUseCase) Execute(ctx context.Context) ([]workbench.Assistant, error) {
	if uc.Cache != nil {
		if raw, err := uc.Cache.Get(ctx, AssistantDirectoryCacheKey); err == nil {
			var assistants []workbench.Assistant
			if json.Unmarshal([]byte(raw), &assistants) == nil {
				return assistants, nil
			}
		}
	}

	assistants, err := uc.Directory.ListAssistants(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if uc.Cache != nil {
		if raw, err := json.Marshal(assistants); err == nil {
			_ = uc.Cache.Set(ctx, AssistantDirectoryCacheKey, string(raw), assistantDirectoryTTL)
		}
	}
	return assistants, nil
}

// GetAssistantUseCase fetches one directory entry by id.
type GetAssistantUseCase struct {
	Directory repository.AssistantDirectory
}

func NewGetAssistantUseCase(directory repository.AssistantDirectory) *GetAssistantUseCase {
	return &GetAssistantUseCase{Directory: directory}
}

func (uc *GetAssistantUseCase) Execute(ctx context.Context, id string) (*workbench.Assistant, error) {
	if id == "" {
		return nil, fmt.Errorf("assistant id is required")
	}
	a, err := uc.Directory.GetAssistant(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return a, nil
}
