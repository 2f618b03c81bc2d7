package prescription

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/pkg/validate"
)

type Service interface {
	Symptoms(ctx context.Context) (json.RawMessage, error)
	Predict(ctx context.Context, req domain.PredictRequest) (*domain.Prediction, error)
}

type model interface {
	Symptoms(ctx context.Context) (json.RawMessage, error)
	Predict(ctx context.Context, in domain.PredictRequest) (*domain.Prediction, error)
}

type service struct {
	model model
}

type ServiceDeps struct {
	Model model
}

func NewService(deps ServiceDeps) Service {
	return &service{model: deps.Model}
}

func (s *service) Symptoms(ctx context.Context) (json.RawMessage, error) {
	return s.model.Symptoms(ctx)
}

func (s *service) Predict(ctx context.Context, req domain.PredictRequest) (*domain.Prediction, error) {
	symptoms := make([]string, 0, len(req.Symptoms))
	for _, sym := range req.Symptoms {
		if sym = strings.TrimSpace(sym); sym != "" {
			symptoms = append(symptoms, sym)
		}
	}
	req.Symptoms = symptoms
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	out, err := s.model.Predict(ctx, req)
	if err != nil {
		return nil, err
	}
	if out.Prescriptions == nil {
		out.Prescriptions = []string{}
	}
	if out.Precautions == nil {
		out.Precautions = []string{}
	}
	return out, nil
}
