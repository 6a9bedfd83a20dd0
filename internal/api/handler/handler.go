package handler

import "github.com/milith0kun/Portafolio-sub000/internal/service"

// Handler bundles every HTTP handler for router wiring.
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Cycle        *CycleHandler
	Template     *TemplateHandler
	Intake       *IntakeHandler
	Portfolio    *PortfolioHandler
	File         *FileHandler
	Verification *VerificationHandler
}

// NewHandler creates the handler aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, svc.User),
		User:         NewUserHandler(svc.User),
		Cycle:        NewCycleHandler(svc.Cycle),
		Template:     NewTemplateHandler(svc.Template),
		Intake:       NewIntakeHandler(svc.Intake),
		Portfolio:    NewPortfolioHandler(svc.Portfolio),
		File:         NewFileHandler(svc.File),
		Verification: NewVerificationHandler(svc.Verification),
	}
}
