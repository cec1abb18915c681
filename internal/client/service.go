package client

import (
	"context"
	"errors"
	"log/slog"

	"github.com/a1media/agency-dashboard/internal"
	"github.com/a1media/agency-dashboard/internal/core/common/validation"
	clientDatamodel "github.com/a1media/agency-dashboard/internal/core/datamodel/client"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*clientDatamodel.Client, error)
	GetByID(ctx context.Context, id string) (*clientDatamodel.Client, error)
	Create(ctx context.Context, c *clientDatamodel.Client) error
	Update(ctx context.Context, c *clientDatamodel.Client) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Client, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list clients", "error", err)
		return nil, internal.NewInternalError("failed to list clients", err)
	}

	clients := make([]*Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, FromDataModel(row))
	}
	return clients, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Client, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap("get", id, err)
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreateClientDTO) (*Client, error) {
	if verr := validation.Struct(dto); verr != nil {
		return nil, verr
	}

	c := NewClient(dto)
	if err := s.repo.Create(ctx, ToDataModel(c)); err != nil {
		s.logger.Error("failed to create client", "name", dto.Name, "error", err)
		return nil, internal.NewInternalError("failed to create client", err)
	}

	s.logger.Info("client created", "client_id", c.ID, "company", c.Company)
	return c, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateClientDTO) (*Client, error) {
	if verr := validation.Struct(dto); verr != nil {
		return nil, verr
	}

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Apply(dto) {
		return c, nil
	}

	if err := s.repo.Update(ctx, ToDataModel(c)); err != nil {
		return nil, s.wrap("update", id, err)
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.wrap("delete", id, err)
	}
	s.logger.Info("client deleted", "client_id", id)
	return nil
}

func (s *Service) wrap(op, id string, err error) error {
	if errors.Is(err, internal.ErrClientNotFound) || errors.Is(err, internal.ErrClientInUse) {
		return err
	}
	s.logger.Error("client repository failed", "op", op, "client_id", id, "error", err)
	return internal.NewInternalError("failed to "+op+" client", err)
}
