package gateways

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/invoicedesk-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/invoicedesk-backend/pkg/db/types"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
)

type tenantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// Service manages the payment gateways a tenant has connected.
type Service interface {
	Upsert(ctx context.Context, tenantID uuid.UUID, input UpsertInput) (*GatewayDTO, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]GatewayDTO, error)
	Delete(ctx context.Context, tenantID uuid.UUID, kind enums.GatewayKind) error
}

// UpsertInput replaces the whole config of one gateway kind.
type UpsertInput struct {
	Kind    enums.GatewayKind
	Enabled bool
	Config  json.RawMessage
}

// GatewayDTO is the API view of a gateway; secrets are masked.
type GatewayDTO struct {
	ID        uuid.UUID         `json:"id"`
	Kind      enums.GatewayKind `json:"kind"`
	Enabled   bool              `json:"enabled"`
	Config    Config            `json:"config"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type ServiceParams struct {
	Repo    Repository
	Tenants tenantFinder
}

type service struct {
	repo    Repository
	tenants tenantFinder
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway repository required")
	}
	if params.Tenants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tenant lookup required")
	}
	return &service{repo: params.Repo, tenants: params.Tenants}, nil
}

func (s *service) Upsert(ctx context.Context, tenantID uuid.UUID, input UpsertInput) (*GatewayDTO, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gateway kind")
	}
	cfg, err := Decode(input.Kind, input.Config)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gateway config")
	}
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	// a config read back from List carries masked secrets; keep the stored ones
	existing, err := s.repo.FindByKind(ctx, tenantID, input.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup gateway config")
	}
	if existing != nil {
		if prev, err := Decode(existing.Kind, existing.Config.Raw()); err == nil {
			cfg = cfg.KeepSecrets(prev)
		}
	}
	if issues := MaskedSecrets(cfg); len(issues) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway config contains masked secrets").WithDetails(issues)
	}
	if err := cfg.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gateway config").WithDetails(Issues(err))
	}

	// re-encode so only known fields are stored
	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway config")
	}
	row := &models.GatewayConfig{
		ID:       uuid.New(),
		TenantID: tenantID,
		Kind:     input.Kind,
		Enabled:  input.Enabled,
		Config:   dbtypes.JSONDocument(payload),
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save gateway config")
	}

	stored, err := s.repo.FindByKind(ctx, tenantID, input.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload gateway config")
	}
	if stored == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway config missing after save")
	}
	return toDTO(*stored)
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID) ([]GatewayDTO, error) {
	if err := s.requireTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list gateway configs")
	}
	out := make([]GatewayDTO, 0, len(rows))
	for _, row := range rows {
		dto, err := toDTO(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, tenantID uuid.UUID, kind enums.GatewayKind) error {
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid gateway kind")
	}
	deleted, err := s.repo.Delete(ctx, tenantID, kind)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete gateway config")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "gateway not configured")
	}
	return nil
}

func (s *service) requireTenant(ctx context.Context, tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tenant")
	}
	if tenant == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
	}
	return nil
}

func toDTO(row models.GatewayConfig) (*GatewayDTO, error) {
	cfg, err := Decode(row.Kind, row.Config.Raw())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored gateway config is unreadable")
	}
	return &GatewayDTO{
		ID:        row.ID,
		Kind:      row.Kind,
		Enabled:   row.Enabled,
		Config:    cfg.Masked(),
		UpdatedAt: row.UpdatedAt,
	}, nil
}
