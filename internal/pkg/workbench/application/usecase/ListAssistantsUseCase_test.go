package usecase

import (
	"context"
	"testing"
)

func TestRegisterAssistantAssignsIDAndInvalidatesCache(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	cache.data[AssistantDirectoryCacheKey] = `[]`

	uc := NewRegisterAssistantUseCase(repo, cache)
	a, err := uc.Execute(context.Background(), RegisterAssistantInput{
		Name:     "Bravo",
		Endpoint: "http://bravo:8090/events",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if a.ID == "" {
		t.Error("assistant ID not assigned")
	}
	if a.LastSeen.IsZero() {
		t.Error("last_seen not stamped")
	}
	if _, ok := cache.data[AssistantDirectoryCacheKey]; ok {
		t.Error("directory cache not invalidated on registration")
	}
}

func TestRegisterAssistantRefreshesLastSeen(t *testing.T) {
	repo := newFakeRepo()
	uc := NewRegisterAssistantUseCase(repo, nil)

	first, err := uc.Execute(context.Background(), RegisterAssistantInput{ID: "a1", Name: "Bravo"})
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	second, err := uc.Execute(context.Background(), RegisterAssistantInput{ID: "a1", Name: "Bravo"})
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-registration changed ID: %s vs %s", first.ID, second.ID)
	}
	if second.LastSeen.Before(first.LastSeen) {
		t.Error("last_seen went backwards on re-registration")
	}
	if !second.RegisteredAt.Equal(first.RegisteredAt) {
		t.Error("registered_at changed on re-registration")
	}
}

func TestListAssistantsPopulatesAndServesCache(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	reg := NewRegisterAssistantUseCase(repo, cache)
	if _, err := reg.Execute(context.Background(), RegisterAssistantInput{ID: "a1", Name: "Bravo"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	uc := NewListAssistantsUseCase(repo, cache)

	listing, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	if len(listing) != 1 || listing[0].ID != "a1" {
		t.Fatalf("listing = %+v", listing)
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1 after miss", cache.sets)
	}

	// Second read must come from the cache even if the repo changes.
	delete(repo.assistants, "a1")
	listing, err = uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if len(listing) != 1 {
		t.Errorf("cached listing = %+v, want the original entry", listing)
	}
}

func TestListAssistantsSurvivesWithoutCache(t *testing.T) {
	repo := newFakeRepo()
	reg := NewRegisterAssistantUseCase(repo, nil)
	if _, err := reg.Execute(context.Background(), RegisterAssistantInput{ID: "a1", Name: "Bravo"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	uc := NewListAssistantsUseCase(repo, nil)
	listing, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listing) != 1 {
		t.Errorf("listing = %+v", listing)
	}
}
