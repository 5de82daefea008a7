package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	cacheport "github.com/payneio/semanticworkbench/internal/infrastructure/cache/port"
	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

// AssistantDirectoryCacheKey is where the serialized directory listing lives.
// Registration invalidates it so clients see new assistants on their next
// directory refetch.
const AssistantDirectoryCacheKey = "workbench:assistants"

// RegisterAssistantInput upserts a directory entry. Assistants call this on
// startup and then periodically as a liveness ping; LastSeen is refreshed on
// every call.
type RegisterAssistantInput struct {
	ID           string
	Name         string
	Endpoint     string
	Capabilities []string
}

type RegisterAssistantUseCase struct {
	Directory repository.AssistantDirectory
	Cache     cacheport.Cache
}

func NewRegisterAssistantUseCase(directory repository.AssistantDirectory, cache cacheport.Cache) *RegisterAssistantUseCase {
	return &RegisterAssistantUseCase{Directory: directory, Cache: cache}
}

func (uc *RegisterAssistantUseCase) Execute(ctx context.Context, in RegisterAssistantInput) (*workbench.Assistant, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	a := workbench.Assistant{
		ID:           in.ID,
		Name:         in.Name,
		Endpoint:     in.Endpoint,
		Capabilities: in.Capabilities,
	}
	if err := uc.Directory.UpsertAssistant(ctx, a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if uc.Cache != nil {
		// Best-effort invalidation; a stale listing self-heals via TTL.
		_, _ = uc.Cache.Del(ctx, AssistantDirectoryCacheKey)
	}

	stored, err := uc.Directory.GetAssistant(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return stored, nil
}
