package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
)

// ServiceView is a vehicle service with its cost roll-up.
type ServiceView struct {
	core.VehicleService
	PartsTotal   decimal.Decimal `json:"parts_total"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	PartsSummary []string        `json:"parts_summary"`
}

func NewServiceView(s core.VehicleService) ServiceView {
	return ServiceView{
		VehicleService: s,
		PartsTotal:     s.PartsTotal(),
		GrandTotal:     s.GrandTotal(),
		PartsSummary:   s.PartsSummary(),
	}
}

// VehicleLogService records vehicle services and the parts and documents
// attached to them.
type VehicleLogService struct {
	store ports.VehicleStore
	notifier
}

func NewVehicleLogService(store ports.VehicleStore, opts ...Option) *VehicleLogService {
	return &VehicleLogService{
		store:    store,
		notifier: newNotifier(log.ComponentVehicle, opts),
	}
}

func (s *VehicleLogService) CreateVehicle(ctx context.Context, v core.Vehicle) (core.Vehicle, error) {
	if err := v.Validate(); err != nil {
		return core.Vehicle{}, err
	}
	return s.store.CreateVehicle(ctx, v)
}

func (s *VehicleLogService) ListVehicles(ctx context.Context) ([]core.Vehicle, error) {
	return s.store.ListVehicles(ctx)
}

func (s *VehicleLogService) CreateGarage(ctx context.Context, g core.Garage) (core.Garage, error) {
	if err := g.Validate(); err != nil {
		return core.Garage{}, err
	}
	return s.store.CreateGarage(ctx, g)
}

func (s *VehicleLogService) ListGarages(ctx context.Context) ([]core.Garage, error) {
	return s.store.ListGarages(ctx)
}

func (s *VehicleLogService) CreateShop(ctx context.Context, sh core.Shop) (core.Shop, error) {
	if err := sh.Validate(); err != nil {
		return core.Shop{}, err
	}
	return s.store.CreateShop(ctx, sh)
}

func (s *VehicleLogService) ListShops(ctx context.Context) ([]core.Shop, error) {
	return s.store.ListShops(ctx)
}

// Log validates and stores a service visit with its parts.
func (s *VehicleLogService) Log(ctx context.Context, svc core.VehicleService) (ServiceView, error) {
	if err := svc.Validate(); err != nil {
		return ServiceView{}, err
	}
	saved, err := s.store.CreateService(ctx, svc)
	if err != nil {
		return ServiceView{}, fmt.Errorf("save vehicle service: %w", err)
	}
	view := NewServiceView(saved)

	s.logger.InfoContext(ctx, "Vehicle service logged",
		log.FieldServiceID, saved.ID,
		"vehicle_id", saved.VehicleID,
		"service_type", saved.ServiceType,
		"grand_total", view.GrandTotal.StringFixed(2))

	s.changed(ctx, amqp.NewRecordChangedMessage(amqp.KindVehicleService, saved.ID, amqp.ActionCreated))
	return view, nil
}

// AddPart attaches a part to an existing service and returns the updated
// roll-up.
func (s *VehicleLogService) AddPart(ctx context.Context, p core.ServicePart) (ServiceView, error) {
	if err := p.Validate(); err != nil {
		return ServiceView{}, err
	}
	if _, err := s.store.AddPart(ctx, p); err != nil {
		return ServiceView{}, fmt.Errorf("add part to service %d: %w", p.ServiceID, err)
	}
	view, err := s.Get(ctx, p.ServiceID)
	if err != nil {
		return ServiceView{}, err
	}
	s.changed(ctx, amqp.NewRecordChangedMessage(amqp.KindVehicleService, p.ServiceID, amqp.ActionUpdated))
	return view, nil
}

func (s *VehicleLogService) AddDocument(ctx context.Context, d core.ServiceDocument) (core.ServiceDocument, error) {
	if strings.TrimSpace(d.FileName) == "" {
		return core.ServiceDocument{}, core.NewValidationError("file_name", "file name is required")
	}
	doc, err := s.store.AddDocument(ctx, d)
	if err != nil {
		return core.ServiceDocument{}, fmt.Errorf("add document to service %d: %w", d.ServiceID, err)
	}
	return doc, nil
}

func (s *VehicleLogService) Get(ctx context.Context, id int64) (ServiceView, error) {
	svc, err := s.store.GetService(ctx, id)
	if err != nil {
		return ServiceView{}, err
	}
	return NewServiceView(svc), nil
}

// List returns services newest first, for one vehicle or all when vehicleID
// is zero.
func (s *VehicleLogService) List(ctx context.Context, vehicleID int64) ([]ServiceView, error) {
	services, err := s.store.ListServices(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list vehicle services: %w", err)
	}
	views := make([]ServiceView, len(services))
	for i, svc := range services {
		views[i] = NewServiceView(svc)
	}
	return views, nil
}
