package usecase

import "fmt"

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("workbench use case persistence error")

// ErrNotFound indicates the requested resource does not exist
var ErrNotFound = fmt.Errorf("workbench use case: not found")
