package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ServiceType classifies a vehicle service visit.
type ServiceType string

const (
	ServiceMaintenance ServiceType = "maintenance"
	ServiceRepair      ServiceType = "repair"
	ServiceInspection  ServiceType = "inspection"
	ServiceOilChange   ServiceType = "oil_change"
	ServiceTireChange  ServiceType = "tire_change"
	ServiceOther       ServiceType = "other"
)

var serviceTypeNames = map[ServiceType]string{
	ServiceMaintenance: "Regular Maintenance",
	ServiceRepair:      "Repair",
	ServiceInspection:  "Inspection",
	ServiceOilChange:   "Oil Change",
	ServiceTireChange:  "Tire Change",
	ServiceOther:       "Other",
}

func (t ServiceType) Valid() bool {
	_, ok := serviceTypeNames[t]
	return ok
}

// Name returns the display name of the service type.
func (t ServiceType) Name() string {
	return serviceTypeNames[t]
}

type (
	Vehicle struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		PlateNumber string `json:"plate_number"`
	}

	Garage struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Location string `json:"location"`
	}

	Shop struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Location string `json:"location"`
	}

	// ServicePart is a part bought for a service. TotalCost already includes
	// the quantity.
	ServicePart struct {
		ID        int64           `json:"id"`
		ServiceID int64           `json:"service_id"`
		ShopID    int64           `json:"shop_id"`
		ShopName  string          `json:"shop_name,omitempty"`
		PartName  string          `json:"part_name"`
		Quantity  int             `json:"quantity"`
		TotalCost decimal.Decimal `json:"total_cost"`
	}

	// ServiceDocument references an uploaded file; the blob itself lives
	// outside the record store.
	ServiceDocument struct {
		ID        int64  `json:"id"`
		ServiceID int64  `json:"service_id"`
		FileName  string `json:"file_name"`
	}

	VehicleService struct {
		ID          int64             `json:"id"`
		VehicleID   int64             `json:"vehicle_id"`
		VehicleName string            `json:"vehicle_name,omitempty"`
		ServiceDate Date              `json:"service_date"`
		ServiceType ServiceType       `json:"service_type"`
		Description string            `json:"description"`
		Cost        decimal.Decimal   `json:"cost"`
		Mileage     *int              `json:"mileage,omitempty"`
		GarageID    *int64            `json:"garage_id,omitempty"`
		GarageName  string            `json:"garage_name,omitempty"`
		Parts       []ServicePart     `json:"parts"`
		Documents   []ServiceDocument `json:"documents"`
	}
)

func (v Vehicle) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return NewValidationError("name", "vehicle name is required")
	}
	if strings.TrimSpace(v.PlateNumber) == "" {
		return NewValidationError("plate_number", "plate number is required")
	}
	return nil
}

func (g Garage) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return NewValidationError("name", "garage name is required")
	}
	return nil
}

func (s Shop) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError("name", "shop name is required")
	}
	return nil
}

func (p ServicePart) Validate() error {
	if p.ShopID <= 0 {
		return NewValidationError("shop_id", "shop is required")
	}
	if strings.TrimSpace(p.PartName) == "" {
		return NewValidationError("part_name", "part name is required")
	}
	if p.Quantity < 1 {
		return NewValidationError("quantity", "quantity must be at least 1")
	}
	if p.TotalCost.IsNegative() {
		return NewValidationError("total_cost", "must not be negative")
	}
	return nil
}

func (s VehicleService) Validate() error {
	if s.VehicleID <= 0 {
		return NewValidationError("vehicle_id", "vehicle is required")
	}
	if err := s.ServiceDate.Validate(); err != nil {
		return NewValidationError("service_date", "%v", err)
	}
	if !s.ServiceType.Valid() {
		return NewValidationError("service_type", "unsupported service type %q", s.ServiceType)
	}
	if strings.TrimSpace(s.Description) == "" {
		return NewValidationError("description", "description is required")
	}
	if s.Cost.IsNegative() {
		return NewValidationError("cost", "must not be negative")
	}
	if s.Mileage != nil && *s.Mileage < 0 {
		return NewValidationError("mileage", "must not be negative")
	}
	for _, p := range s.Parts {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PartsTotal sums the total cost of every part.
func (s VehicleService) PartsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Parts {
		total = total.Add(p.TotalCost)
	}
	return total
}

// GrandTotal is the service cost plus the parts total.
func (s VehicleService) GrandTotal() decimal.Decimal {
	return s.Cost.Add(s.PartsTotal())
}

// PartsSummary lists the parts as "name - LKR cost" lines, or "No parts".
func (s VehicleService) PartsSummary() []string {
	if len(s.Parts) == 0 {
		return []string{"No parts"}
	}
	out := make([]string, len(s.Parts))
	for i, p := range s.Parts {
		out[i] = fmt.Sprintf("%s - %s", p.PartName, FormatMoney(p.TotalCost, BaseCurrency))
	}
	return out
}

func (s VehicleService) String() string {
	name := s.VehicleName
	if name == "" {
		name = fmt.Sprintf("vehicle #%d", s.VehicleID)
	}
	return fmt.Sprintf("%s - %s", name, s.ServiceDate)
}
