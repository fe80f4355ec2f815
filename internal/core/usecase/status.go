package usecase

import (
	"context"

	"github.com/grovelight/leafsense/internal/core/domain"
	"github.com/grovelight/leafsense/internal/core/ports"
)

type ServiceStatusUseCase struct {
	classifier ports.ClassifierGateway
}

func NewServiceStatusUseCase(classifier ports.ClassifierGateway) *ServiceStatusUseCase {
	return &ServiceStatusUseCase{classifier: classifier}
}

func (uc *ServiceStatusUseCase) Status(ctx context.Context) domain.ServiceState {
	return uc.classifier.Probe(ctx)
}
