package chargemap

import (
	"strconv"
	"strings"
)

// poi is the subset of an Open Charge Map POI document we read.
type poi struct {
	ID           int          `json:"ID"`
	UUID         string       `json:"UUID"`
	OperatorID   *int         `json:"OperatorID"`
	OperatorInfo *namedRef    `json:"OperatorInfo"`
	AddressInfo  addressInfo  `json:"AddressInfo"`
	Connections  []connection `json:"Connections"`
}

type namedRef struct {
	ID    int    `json:"ID"`
	Title string `json:"Title"`
}

type addressInfo struct {
	Title        string   `json:"Title"`
	AddressLine1 string   `json:"AddressLine1"`
	Town         string   `json:"Town"`
	Postcode     string   `json:"Postcode"`
	Latitude     float64  `json:"Latitude"`
	Longitude    float64  `json:"Longitude"`
	Distance     *float64 `json:"Distance"`
}

type connection struct {
	ConnectionTypeID int       `json:"ConnectionTypeID"`
	ConnectionType   *namedRef `json:"ConnectionType"`
	PowerKW          *float64  `json:"PowerKW"`
}

// Compact responses carry reference ids only; these are the common ones.
var connectionTypes = map[int]string{
	1:    "Type 1 (J1772)",
	2:    "CHAdeMO",
	25:   "Type 2 (Socket Only)",
	27:   "Tesla Supercharger",
	30:   "Tesla (Model S/X)",
	32:   "CCS (Type 1)",
	33:   "CCS (Type 2)",
	1036: "Type 2 (Tethered Connector)",
}

var operators = map[int]string{
	1:    "(Unknown Operator)",
	3:    "ChargePoint",
	23:   "Tesla",
	39:   "EVgo",
	3534: "IONITY",
}

func (p poi) station() Station {
	s := Station{
		ExternalID: strconv.Itoa(p.ID),
		Name:       p.AddressInfo.Title,
		Address:    joinNonEmpty(p.AddressInfo.AddressLine1, p.AddressInfo.Town, p.AddressInfo.Postcode),
		Latitude:   p.AddressInfo.Latitude,
		Longitude:  p.AddressInfo.Longitude,
		Connectors: []string{},
	}
	if p.AddressInfo.Distance != nil {
		s.Distance = *p.AddressInfo.Distance
	}

	switch {
	case p.OperatorInfo != nil && p.OperatorInfo.Title != "":
		s.Network = p.OperatorInfo.Title
	case p.OperatorID != nil:
		s.Network = operators[*p.OperatorID]
	}

	seen := make(map[string]struct{}, len(p.Connections))
	for _, c := range p.Connections {
		if c.PowerKW != nil && *c.PowerKW > s.PowerKW {
			s.PowerKW = *c.PowerKW
		}
		name := connectorName(c)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		s.Connectors = append(s.Connectors, name)
	}
	return s
}

func connectorName(c connection) string {
	if c.ConnectionType != nil && c.ConnectionType.Title != "" {
		return c.ConnectionType.Title
	}
	if name, ok := connectionTypes[c.ConnectionTypeID]; ok {
		return name
	}
	if c.ConnectionTypeID > 0 {
		return "Type " + strconv.Itoa(c.ConnectionTypeID)
	}
	return ""
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
