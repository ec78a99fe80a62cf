package models

// Plan is a subscription plan. Older backend builds spelled the device-count
// field three different ways over time, so the raw variants are all captured
// and DeviceCount resolves them to a single value.
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DeviceLimit int    `json:"deviceLimit"`
	NoOfDevices int    `json:"NoOfDevices"`
	NoOfDecives int    `json:"NoOfDecives"`
	Price       int64  `json:"price"`
	Description string `json:"description,omitempty"`
}

// DeviceCount returns the number of devices the plan allows, preferring the
// current field and falling back through the legacy spellings. Zero means the
// server gave no usable value.
func (p *Plan) DeviceCount() int {
	if p.DeviceLimit > 0 {
		return p.DeviceLimit
	}
	if p.NoOfDevices > 0 {
		return p.NoOfDevices
	}
	if p.NoOfDecives > 0 {
		return p.NoOfDecives
	}
	return 0
}
