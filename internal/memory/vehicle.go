package memory

import (
	"context"
	"sort"

	"budget/internal/core"
)

func (s *Store) CreateVehicle(_ context.Context, v core.Vehicle) (core.Vehicle, error) {
	if err := v.Validate(); err != nil {
		return core.Vehicle{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.id()
	s.vehicles = append(s.vehicles, v)
	return v, nil
}

func (s *Store) ListVehicles(context.Context) ([]core.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Vehicle(nil), s.vehicles...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateGarage(_ context.Context, g core.Garage) (core.Garage, error) {
	if err := g.Validate(); err != nil {
		return core.Garage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.id()
	s.garages = append(s.garages, g)
	return g, nil
}

func (s *Store) ListGarages(context.Context) ([]core.Garage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Garage(nil), s.garages...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateShop(_ context.Context, sh core.Shop) (core.Shop, error) {
	if err := sh.Validate(); err != nil {
		return core.Shop{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sh.ID = s.id()
	s.shops = append(s.shops, sh)
	return sh, nil
}

func (s *Store) ListShops(context.Context) ([]core.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Shop(nil), s.shops...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateService stores the service and any parts attached to it.
func (s *Store) CreateService(_ context.Context, svc core.VehicleService) (core.VehicleService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicle(svc.VehicleID); !ok {
		return core.VehicleService{}, core.NewValidationError("vehicle_id", "unknown vehicle %d", svc.VehicleID)
	}
	if svc.GarageID != nil {
		if _, ok := s.garage(*svc.GarageID); !ok {
			return core.VehicleService{}, core.NewValidationError("garage_id", "unknown garage %d", *svc.GarageID)
		}
	}
	for _, p := range svc.Parts {
		if _, ok := s.shop(p.ShopID); !ok {
			return core.VehicleService{}, core.NewValidationError("shop_id", "unknown shop %d", p.ShopID)
		}
	}

	svc.ID = s.id()
	parts := svc.Parts
	svc.Parts, svc.Documents = nil, nil
	s.services = append(s.services, svc)
	for _, p := range parts {
		p.ID = s.id()
		p.ServiceID = svc.ID
		s.parts = append(s.parts, p)
	}
	return s.loadService(svc), nil
}

func (s *Store) GetService(_ context.Context, id int64) (core.VehicleService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, svc := range s.services {
		if svc.ID == id {
			return s.loadService(svc), nil
		}
	}
	return core.VehicleService{}, core.ErrNotFound
}

// ListServices returns every service, or only those of vehicleID when it is
// non-zero, newest first.
func (s *Store) ListServices(_ context.Context, vehicleID int64) ([]core.VehicleService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.VehicleService, 0, len(s.services))
	for _, svc := range s.services {
		if vehicleID != 0 && svc.VehicleID != vehicleID {
			continue
		}
		out = append(out, s.loadService(svc))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ServiceDate, out[j].ServiceDate
		if !a.Equal(b.Time) {
			return a.After(b.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) AddPart(_ context.Context, p core.ServicePart) (core.ServicePart, error) {
	if err := p.Validate(); err != nil {
		return core.ServicePart{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasService(p.ServiceID) {
		return core.ServicePart{}, core.ErrNotFound
	}
	shop, ok := s.shop(p.ShopID)
	if !ok {
		return core.ServicePart{}, core.NewValidationError("shop_id", "unknown shop %d", p.ShopID)
	}
	p.ID = s.id()
	s.parts = append(s.parts, p)
	p.ShopName = shop.Name
	return p, nil
}

func (s *Store) AddDocument(_ context.Context, d core.ServiceDocument) (core.ServiceDocument, error) {
	if d.FileName == "" {
		return core.ServiceDocument{}, core.NewValidationError("file_name", "file name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasService(d.ServiceID) {
		return core.ServiceDocument{}, core.ErrNotFound
	}
	d.ID = s.id()
	s.documents = append(s.documents, d)
	return d, nil
}

// loadService fills in names, parts and documents. Callers hold s.mu.
func (s *Store) loadService(svc core.VehicleService) core.VehicleService {
	if v, ok := s.vehicle(svc.VehicleID); ok {
		svc.VehicleName = v.Name
	}
	if svc.GarageID != nil {
		if g, ok := s.garage(*svc.GarageID); ok {
			svc.GarageName = g.Name
		}
	}
	svc.Parts = []core.ServicePart{}
	for _, p := range s.parts {
		if p.ServiceID == svc.ID {
			if sh, ok := s.shop(p.ShopID); ok {
				p.ShopName = sh.Name
			}
			svc.Parts = append(svc.Parts, p)
		}
	}
	svc.Documents = []core.ServiceDocument{}
	for _, d := range s.documents {
		if d.ServiceID == svc.ID {
			svc.Documents = append(svc.Documents, d)
		}
	}
	return svc
}

func (s *Store) hasService(id int64) bool {
	for _, svc := range s.services {
		if svc.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) vehicle(id int64) (core.Vehicle, bool) {
	for _, v := range s.vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return core.Vehicle{}, false
}

func (s *Store) garage(id int64) (core.Garage, bool) {
	for _, g := range s.garages {
		if g.ID == id {
			return g, true
		}
	}
	return core.Garage{}, false
}

func (s *Store) shop(id int64) (core.Shop, bool) {
	for _, sh := range s.shops {
		if sh.ID == id {
			return sh, true
		}
	}
	return core.Shop{}, false
}
