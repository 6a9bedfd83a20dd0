package service

import (
	"go.uber.org/zap"

	"github.com/milith0kun/Portafolio-sub000/config"
	"github.com/milith0kun/Portafolio-sub000/internal/repository"
	"github.com/milith0kun/Portafolio-sub000/pkg/jwt"
	"github.com/milith0kun/Portafolio-sub000/pkg/redis"
)

// Service bundles every business service for handler wiring.
type Service struct {
	Auth         AuthService
	User         UserService
	Cycle        CycleService
	Template     TemplateService
	Intake       IntakeService
	Portfolio    PortfolioService
	Verification VerificationService
	File         FileService
}

// NewService wires the full service layer.
func NewService(cfg *config.Config, repo *repository.Repository, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *Service {
	portfolio := NewPortfolioService(repo, logger)
	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:         NewUserService(repo, logger),
		Cycle:        NewCycleService(repo, logger),
		Template:     NewTemplateService(repo, logger),
		Intake:       NewIntakeService(repo, logger),
		Portfolio:    portfolio,
		Verification: NewVerificationService(repo, portfolio, logger),
		File:         NewFileService(&cfg.Upload, repo, logger),
	}
}
