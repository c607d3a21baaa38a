package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDisplayAddress(t *testing.T) {
	cases := []struct {
		city, landmark, want string
	}{
		{"Pune", "Phoenix Mall", "Pune - Phoenix Mall"},
		{"Pune", "pune - Phoenix Mall", "pune - Phoenix Mall"},
		{"Pune", "Pune, Koregaon Park", "Pune, Koregaon Park"},
		{"Pune", "PUNE", "Pune"},
		{"", "Phoenix Mall", "Phoenix Mall"},
		{"Pune", "  ", "Pune"},
		{"San Francisco", "San Francisco Ferry Building", "San Francisco - San Francisco Ferry Building"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDisplayAddress(tc.city, tc.landmark), "%q/%q", tc.city, tc.landmark)
	}
}

func TestStationAvailability(t *testing.T) {
	s := &Station{Ports: Ports{
		{ID: "p1", Status: StatusAvailable},
		{ID: "p2", Status: StatusBusy},
		{ID: "p3", Status: StatusBusy},
		{ID: "p4", Status: StatusOffline},
	}}
	assert.Equal(t, PortAvailability{Total: 4, Available: 1, Busy: 2, Offline: 1}, s.Availability())

	p, ok := s.Ports.Find("p3")
	require.True(t, ok)
	assert.Equal(t, StatusBusy, p.Status)

	_, ok = s.Ports.Find("missing")
	assert.False(t, ok)
}

func TestPricingTariffFor(t *testing.T) {
	p := Pricing{Normal: Tariff{Base: 8, Peak: 12}, Fast: Tariff{Base: 15, Peak: 20}}
	assert.Equal(t, p.Fast, p.TariffFor("Fast DC"))
	assert.Equal(t, p.Fast, p.TariffFor("Ultra Fast DC"))
	assert.Equal(t, p.Normal, p.TariffFor("Normal AC"))
	assert.Equal(t, p.Normal, p.TariffFor(""))
}

func TestPeakWindowDefaults(t *testing.T) {
	s := &Station{}
	start, end := s.PeakWindow(18, 21)
	assert.Equal(t, 18, start)
	assert.Equal(t, 21, end)

	s.PeakHours = &PeakHours{Start: 17, End: 20}
	start, end = s.PeakWindow(18, 21)
	assert.Equal(t, 17, start)
	assert.Equal(t, 20, end)
}

func TestPortsScan(t *testing.T) {
	raw, err := json.Marshal(Ports{{ID: "p1", Type: "Fast DC", Power: 150}})
	require.NoError(t, err)

	var fromBytes, fromString Ports
	require.NoError(t, fromBytes.Scan(raw))
	require.NoError(t, fromString.Scan(string(raw)))
	assert.Equal(t, fromBytes, fromString)
	assert.Equal(t, 150.0, fromBytes[0].Power)

	var empty Ports
	require.NoError(t, empty.Scan(nil))
	assert.Error(t, empty.Scan(42))
}

func TestVehicleType(t *testing.T) {
	v := &Vehicle{Make: "Tesla", Model: "Model 3"}
	assert.Equal(t, "Tesla Model 3", v.VehicleType())
}

func TestSessionEnergyBetween(t *testing.T) {
	s := &ChargingSession{BatteryCapacityKwh: 75, Status: SessionCharging}
	assert.InDelta(t, 45.0, s.EnergyBetween(20, 80), 1e-9)
	assert.True(t, s.Active())
	s.Status = SessionCompleted
	assert.False(t, s.Active())
}
