package dev

import (
	"time"

	"github.com/nu7hatch/gouuid"
)

// Incident captures an anomaly that needs operator attention, such as a
// failed compensating transfer during settlement unwind.
type Incident struct {
	Time      time.Time              `json:"time"`
	Component string                 `json:"component"`
	Name      string                 `json:"name"`
	Error     string                 `json:"error"`
	Extra     map[string]interface{} `json:"extra"`
}

func (i Incident) Slug() string {
	u, _ := uuid.NewV4()
	return u.String()
}

func NewIncident(component, name string, err error, extra map[string]interface{}) Incident {
	return Incident{
		Time:      time.Now(),
		Component: component,
		Name:      name,
		Error:     err.Error(),
		Extra:     extra,
	}
}
