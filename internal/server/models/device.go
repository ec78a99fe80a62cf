package models

import "time"

type DeviceType string

const (
	DeviceTypePhone  DeviceType = "phone"
	DeviceTypeLaptop DeviceType = "laptop"
	DeviceTypeTablet DeviceType = "tablet"
	DeviceTypeRFID   DeviceType = "rfid"
	DeviceTypeOther  DeviceType = "other"
)

type DeviceStatus string

const (
	DeviceStatusActive   DeviceStatus = "active"
	DeviceStatusStolen   DeviceStatus = "stolen"
	DeviceStatusMissing  DeviceStatus = "missing"
	DeviceStatusInactive DeviceStatus = "inactive"
)

// ValidDeviceType reports whether t is one of the supported device types.
func ValidDeviceType(t DeviceType) bool {
	switch t {
	case DeviceTypePhone, DeviceTypeLaptop, DeviceTypeTablet, DeviceTypeRFID, DeviceTypeOther:
		return true
	}
	return false
}

// ValidDeviceStatus reports whether s is one of the supported statuses.
func ValidDeviceStatus(s DeviceStatus) bool {
	switch s {
	case DeviceStatusActive, DeviceStatusStolen, DeviceStatusMissing, DeviceStatusInactive:
		return true
	}
	return false
}

// Incident holds the recovery metadata attached to a device while it is
// reported stolen or missing. It is disclosed to anonymous checkers; this is
// the only place owner contact data ever leaves the system unauthenticated.
type Incident struct {
	Location     string
	Country      string
	State        string
	Date         time.Time
	ContactPhone string
	PhotoKey     string
	Description  string
}

// Device has exactly one current owner. Identifiers (IMEI1/IMEI2/serial)
// are unique across the registry; lookups are exact-match only.
type Device struct {
	ID           string
	Name         string
	Type         DeviceType
	IMEI1        string
	IMEI2        string
	SerialNumber string
	Status       DeviceStatus
	OwnerID      string
	Incident     *Incident
	RegisteredAt time.Time
	UpdatedAt    time.Time
}

// Reported reports whether the device is in a stolen or missing state.
func (d *Device) Reported() bool {
	return d.Status == DeviceStatusStolen || d.Status == DeviceStatusMissing
}
