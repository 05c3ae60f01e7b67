package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"budget/internal/core"
)

func (r *SQLiteRepository) CreateVehicle(ctx context.Context, v core.Vehicle) (core.Vehicle, error) {
	if err := v.Validate(); err != nil {
		return core.Vehicle{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicles (name, plate_number) VALUES (?, ?)`, v.Name, v.PlateNumber)
	if err != nil {
		return core.Vehicle{}, fmt.Errorf("create vehicle: %w", err)
	}
	v.ID, err = res.LastInsertId()
	return v, err
}

func (r *SQLiteRepository) ListVehicles(ctx context.Context) ([]core.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, plate_number FROM vehicles ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	out := []core.Vehicle{}
	for rows.Next() {
		var v core.Vehicle
		if err := rows.Scan(&v.ID, &v.Name, &v.PlateNumber); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateGarage(ctx context.Context, g core.Garage) (core.Garage, error) {
	if err := g.Validate(); err != nil {
		return core.Garage{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO garages (name, location) VALUES (?, ?)`, g.Name, g.Location)
	if err != nil {
		return core.Garage{}, fmt.Errorf("create garage: %w", err)
	}
	g.ID, err = res.LastInsertId()
	return g, err
}

func (r *SQLiteRepository) ListGarages(ctx context.Context) ([]core.Garage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, location FROM garages ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list garages: %w", err)
	}
	defer rows.Close()

	out := []core.Garage{}
	for rows.Next() {
		var g core.Garage
		if err := rows.Scan(&g.ID, &g.Name, &g.Location); err != nil {
			return nil, fmt.Errorf("scan garage: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateShop(ctx context.Context, s core.Shop) (core.Shop, error) {
	if err := s.Validate(); err != nil {
		return core.Shop{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO shops (name, location) VALUES (?, ?)`, s.Name, s.Location)
	if err != nil {
		return core.Shop{}, fmt.Errorf("create shop: %w", err)
	}
	s.ID, err = res.LastInsertId()
	return s, err
}

func (r *SQLiteRepository) ListShops(ctx context.Context) ([]core.Shop, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, location FROM shops ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}
	defer rows.Close()

	out := []core.Shop{}
	for rows.Next() {
		var s core.Shop
		if err := rows.Scan(&s.ID, &s.Name, &s.Location); err != nil {
			return nil, fmt.Errorf("scan shop: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateService inserts the service and its parts in one transaction.
func (r *SQLiteRepository) CreateService(ctx context.Context, svc core.VehicleService) (core.VehicleService, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := reference(ctx, tx, "vehicles", "vehicle_id", svc.VehicleID); err != nil {
			return err
		}
		var garage sql.NullInt64
		if svc.GarageID != nil {
			if err := reference(ctx, tx, "garages", "garage_id", *svc.GarageID); err != nil {
				return err
			}
			garage = sql.NullInt64{Int64: *svc.GarageID, Valid: true}
		}
		var mileage sql.NullInt64
		if svc.Mileage != nil {
			mileage = sql.NullInt64{Int64: int64(*svc.Mileage), Valid: true}
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO vehicle_services
			(vehicle_id, service_date, service_type, description, cost, mileage, garage_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			svc.VehicleID, svc.ServiceDate.String(), string(svc.ServiceType), svc.Description,
			svc.Cost, mileage, garage)
		if err != nil {
			return fmt.Errorf("create vehicle service: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("create vehicle service: %w", err)
		}

		for _, p := range svc.Parts {
			p.ServiceID = id
			if err := insertPart(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.VehicleService{}, err
	}
	return r.GetService(ctx, id)
}

func exists(ctx context.Context, tx *sql.Tx, table string, id int64) error {
	var one int
	return tx.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
}

// reference turns a missing row in table into a field error.
func reference(ctx context.Context, tx *sql.Tx, table, field string, id int64) error {
	err := exists(ctx, tx, table, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return core.NewValidationError(field, "unknown %s %d", strings.TrimSuffix(table, "s"), id)
	default:
		return fmt.Errorf("check %s %d: %w", field, id, err)
	}
}

func insertPart(ctx context.Context, tx *sql.Tx, p core.ServicePart) error {
	if err := reference(ctx, tx, "shops", "shop_id", p.ShopID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO service_parts
		(service_id, shop_id, part_name, quantity, total_cost) VALUES (?, ?, ?, ?, ?)`,
		p.ServiceID, p.ShopID, p.PartName, p.Quantity, p.TotalCost)
	if err != nil {
		return fmt.Errorf("create service part: %w", err)
	}
	return nil
}

const serviceSelect = `SELECT vs.id, vs.vehicle_id, v.name, vs.service_date, vs.service_type,
	vs.description, vs.cost, vs.mileage, vs.garage_id, COALESCE(g.name, '')
	FROM vehicle_services vs
	JOIN vehicles v ON v.id = vs.vehicle_id
	LEFT JOIN garages g ON g.id = vs.garage_id`

func scanService(row rowScanner) (core.VehicleService, error) {
	var (
		s       core.VehicleService
		date    sql.NullString
		typ     string
		mileage sql.NullInt64
		garage  sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.VehicleID, &s.VehicleName, &date, &typ,
		&s.Description, &s.Cost, &mileage, &garage, &s.GarageName)
	if err != nil {
		return core.VehicleService{}, err
	}
	s.ServiceType = core.ServiceType(typ)
	if mileage.Valid {
		m := int(mileage.Int64)
		s.Mileage = &m
	}
	if garage.Valid {
		g := garage.Int64
		s.GarageID = &g
	}
	if s.ServiceDate, err = scanDate(date); err != nil {
		return core.VehicleService{}, fmt.Errorf("vehicle service %d: %w", s.ID, err)
	}
	s.Parts = []core.ServicePart{}
	s.Documents = []core.ServiceDocument{}
	return s, nil
}

func (r *SQLiteRepository) GetService(ctx context.Context, id int64) (core.VehicleService, error) {
	s, err := scanService(r.db.QueryRowContext(ctx, serviceSelect+` WHERE vs.id = ?`, id))
	if err != nil {
		return core.VehicleService{}, notFound(err)
	}
	services := []core.VehicleService{s}
	if err := r.loadChildren(ctx, services); err != nil {
		return core.VehicleService{}, err
	}
	return services[0], nil
}

func (r *SQLiteRepository) ListServices(ctx context.Context, vehicleID int64) ([]core.VehicleService, error) {
	q := serviceSelect
	var args []any
	if vehicleID != 0 {
		q += ` WHERE vs.vehicle_id = ?`
		args = append(args, vehicleID)
	}
	q += ` ORDER BY vs.service_date DESC, vs.id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicle services: %w", err)
	}
	out := []core.VehicleService{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan vehicle service: %w", err)
		}
		out = append(out, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadChildren(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadChildren attaches parts and documents to services. With a single
// connection the service rows must be closed before this runs.
func (r *SQLiteRepository) loadChildren(ctx context.Context, services []core.VehicleService) error {
	if len(services) == 0 {
		return nil
	}
	idx := make(map[int64]int, len(services))
	for i, s := range services {
		idx[s.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `SELECT p.id, p.service_id, p.shop_id, sh.name, p.part_name, p.quantity, p.total_cost
		FROM service_parts p JOIN shops sh ON sh.id = p.shop_id ORDER BY p.id`)
	if err != nil {
		return fmt.Errorf("list service parts: %w", err)
	}
	for rows.Next() {
		var p core.ServicePart
		if err := rows.Scan(&p.ID, &p.ServiceID, &p.ShopID, &p.ShopName, &p.PartName, &p.Quantity, &p.TotalCost); err != nil {
			rows.Close()
			return fmt.Errorf("scan service part: %w", err)
		}
		if i, ok := idx[p.ServiceID]; ok {
			services[i].Parts = append(services[i].Parts, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.QueryContext(ctx, `SELECT id, service_id, file_name FROM service_documents ORDER BY id`)
	if err != nil {
		return fmt.Errorf("list service documents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d core.ServiceDocument
		if err := rows.Scan(&d.ID, &d.ServiceID, &d.FileName); err != nil {
			return fmt.Errorf("scan service document: %w", err)
		}
		if i, ok := idx[d.ServiceID]; ok {
			services[i].Documents = append(services[i].Documents, d)
		}
	}
	return rows.Err()
}

func (r *SQLiteRepository) AddPart(ctx context.Context, p core.ServicePart) (core.ServicePart, error) {
	if err := p.Validate(); err != nil {
		return core.ServicePart{}, err
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := exists(ctx, tx, "vehicle_services", p.ServiceID); err != nil {
			return notFound(err)
		}
		if err := insertPart(ctx, tx, p); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `SELECT last_insert_rowid(), name FROM shops WHERE id = ?`, p.ShopID).
			Scan(&p.ID, &p.ShopName)
	})
	if err != nil {
		return core.ServicePart{}, err
	}
	return p, nil
}

func (r *SQLiteRepository) AddDocument(ctx context.Context, d core.ServiceDocument) (core.ServiceDocument, error) {
	if d.FileName == "" {
		return core.ServiceDocument{}, core.NewValidationError("file_name", "file name is required")
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := exists(ctx, tx, "vehicle_services", d.ServiceID); err != nil {
			return notFound(err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO service_documents (service_id, file_name) VALUES (?, ?)`, d.ServiceID, d.FileName)
		if err != nil {
			return fmt.Errorf("create service document: %w", err)
		}
		d.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return core.ServiceDocument{}, err
	}
	return d, nil
}
