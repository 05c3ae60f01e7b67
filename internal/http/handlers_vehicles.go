package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
)

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.svc.Vehicles.ListVehicles(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(vehicles))
}

func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	v, err := s.svc.Vehicles.CreateVehicle(r.Context(), core.Vehicle{
		Name:        sanitizeInput(req.Name),
		PlateNumber: sanitizeInput(req.PlateNumber),
	})
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleListGarages(w http.ResponseWriter, r *http.Request) {
	garages, err := s.svc.Vehicles.ListGarages(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(garages))
}

func (s *Server) handleCreateGarage(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	g, err := s.svc.Vehicles.CreateGarage(r.Context(), core.Garage{
		Name:     sanitizeInput(req.Name),
		Location: sanitizeInput(req.Location),
	})
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleListShops(w http.ResponseWriter, r *http.Request) {
	shops, err := s.svc.Vehicles.ListShops(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(shops))
}

func (s *Server) handleCreateShop(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	sh, err := s.svc.Vehicles.CreateShop(r.Context(), core.Shop{
		Name:     sanitizeInput(req.Name),
		Location: sanitizeInput(req.Location),
	})
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, sh)
}

// handleListServices lists services newest first, optionally for one
// vehicle_id.
func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := queryInt64(r.URL.Query(), "vehicle_id")
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	views, err := s.svc.Vehicles.List(r.Context(), vehicleID)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(views))
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	view, err := s.svc.Vehicles.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleLogService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	svc, err := req.toService()
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	view, err := s.svc.Vehicles.Log(r.Context(), svc)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleAddPart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	var req partRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	part, err := req.toPart(id)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	view, err := s.svc.Vehicles.AddPart(r.Context(), part)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	var req documentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	doc, err := s.svc.Vehicles.AddDocument(r.Context(), core.ServiceDocument{
		ServiceID: id,
		FileName:  sanitizeInput(req.FileName),
	})
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}
