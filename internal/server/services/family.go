package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/logging"
	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/repomanager"
)

type FamilyService struct {
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewFamilyService(m repomanager.RepositoryManager, log logging.Logger) *FamilyService {
	return &FamilyService{repomanager: m, log: log.With("module", "families")}
}

// CreateFamily stores a family under a server-generated id.
func (s *FamilyService) CreateFamily(ctx context.Context, name string) (*models.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: family name is required", common.ErrValidation)
	}

	f, err := s.repomanager.Families().Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("error creating family: %w", err)
	}

	s.log.Info(ctx, "family created", "familyId", f.ID, "name", f.Name)
	return f, nil
}
